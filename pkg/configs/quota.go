package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultQuotaBytes      = 5 << 30 // 5GB
	DefaultProfileCacheTTL = 30 * time.Second
)

// QuotaConfig 存储配额配置.
type QuotaConfig struct {
	DefaultBytes    int64         `mapstructure:"default_bytes"     rule:"min=0"`
	ProfileCacheTTL time.Duration `mapstructure:"profile_cache_ttl" rule:"min=0"`
}

func (c *QuotaConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("quota.default_bytes", DefaultQuotaBytes)
	v.SetDefault("quota.profile_cache_ttl", DefaultProfileCacheTTL)
}
