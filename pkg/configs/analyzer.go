package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultAnalyzerEndpoint       = "https://generativelanguage.googleapis.com"
	DefaultAnalyzerModel          = "gemini-2.5-flash"
	DefaultAnalyzerTimeout        = 90 * time.Second
	DefaultAnalyzerMaxInlineBytes = 20 << 20
	DefaultAnalyzerRPS            = 2.0
	DefaultAnalyzerBurst          = 4
)

// AnalyzerConfig AI 分析服务配置.
type AnalyzerConfig struct {
	Endpoint       string               `mapstructure:"endpoint"         rule:"required,url"`
	Model          string               `mapstructure:"model"            rule:"required"`
	APIKey         string               `mapstructure:"api_key"`
	Timeout        time.Duration        `mapstructure:"timeout"          rule:"min=1s"`
	MaxInlineBytes int64                `mapstructure:"max_inline_bytes" rule:"min=1"`
	RPS            float64              `mapstructure:"rps"              rule:"min=0"` // 0 表示不限速
	Burst          int                  `mapstructure:"burst"            rule:"min=0"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

func (c *AnalyzerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("analyzer.endpoint", DefaultAnalyzerEndpoint)
	v.SetDefault("analyzer.model", DefaultAnalyzerModel)
	v.SetDefault("analyzer.api_key", "")
	v.SetDefault("analyzer.timeout", DefaultAnalyzerTimeout)
	v.SetDefault("analyzer.max_inline_bytes", DefaultAnalyzerMaxInlineBytes)
	v.SetDefault("analyzer.rps", DefaultAnalyzerRPS)
	v.SetDefault("analyzer.burst", DefaultAnalyzerBurst)
	setCircuitBreakerDefaults(v, "analyzer.circuit_breaker", true)
}
