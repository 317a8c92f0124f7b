package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	// 默认熔断器配置.
	DefaultCBEnabled           = false
	DefaultCBFailureRate       = 0.5
	DefaultCBMinRequests       = 20
	DefaultCBIntervalSeconds   = 60
	DefaultCBTimeoutSeconds    = 30
	DefaultCBMaxRequestsInHalf = 5
)

// CircuitBreakerConfig 熔断器配置，HTTP 中间件与 AI 客户端共用同一结构.
type CircuitBreakerConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	FailureRate       float64 `mapstructure:"failure_rate"         rule:"min=0,max=1"` // 连续窗口失败比例阈值 [0,1]
	MinRequests       uint32  `mapstructure:"min_requests"`                            // 进入统计的最小请求数
	IntervalSeconds   int     `mapstructure:"interval_seconds"     rule:"min=0"`       // 滑动窗口统计周期
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"      rule:"min=0"`       // 打开状态持续时间（自动半开）
	MaxRequestsInHalf uint32  `mapstructure:"max_requests_in_half"`                    // 半开状态允许的并发请求数
}

// Interval 统计窗口.
func (c *CircuitBreakerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Timeout 打开状态持续时间.
func (c *CircuitBreakerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *CircuitBreakerConfig) setDefaults(v *viper.Viper) {
	setCircuitBreakerDefaults(v, "circuit_breaker", DefaultCBEnabled)
}

func setCircuitBreakerDefaults(v *viper.Viper, prefix string, enabled bool) {
	v.SetDefault(prefix+".enabled", enabled)
	v.SetDefault(prefix+".failure_rate", DefaultCBFailureRate)
	v.SetDefault(prefix+".min_requests", DefaultCBMinRequests)
	v.SetDefault(prefix+".interval_seconds", DefaultCBIntervalSeconds)
	v.SetDefault(prefix+".timeout_seconds", DefaultCBTimeoutSeconds)
	v.SetDefault(prefix+".max_requests_in_half", DefaultCBMaxRequestsInHalf)
}
