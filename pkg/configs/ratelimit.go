package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultRateLimitEnabled = false
	DefaultRateLimitRPS     = 20.0
	DefaultRateLimitBurst   = 40
	DefaultRateLimitKey     = "user"
	// DefaultRateLimitKeys 按 key 维护的 limiter 上限，超出后淘汰最久未用的.
	DefaultRateLimitKeys = 10000
	DefaultRateLimitIdle = 10 * time.Minute
)

// RateLimitConfig 作用在 /api/v1 鉴权之后的请求上.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"   rule:"min=0"`
	Burst   int     `mapstructure:"burst" rule:"min=0"`
	// Key 限流维度：global、ip、user（认证后的 uid）或 header:<Name>
	Key     string        `mapstructure:"key"`
	MaxKeys int           `mapstructure:"max_keys" rule:"min=0"`
	Idle    time.Duration `mapstructure:"idle"`
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", DefaultRateLimitEnabled)
	v.SetDefault("rate_limit.rps", DefaultRateLimitRPS)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)
	v.SetDefault("rate_limit.key", DefaultRateLimitKey)
	v.SetDefault("rate_limit.max_keys", DefaultRateLimitKeys)
	v.SetDefault("rate_limit.idle", DefaultRateLimitIdle)
}
