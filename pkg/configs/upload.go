package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultStallTimeout    = 60 * time.Second
	DefaultRetainedSources = 64
	DefaultMaxFileBytes    = 2 << 30 // 2GB
)

// UploadConfig 上传协调器配置.
type UploadConfig struct {
	// StallTimeout 单个上传在没有任何进度事件时被判定为停滞的时间.
	StallTimeout time.Duration `mapstructure:"stall_timeout"    rule:"min=1s"`
	// RetainedSources 失败后仍保留在内存中、可直接重试的源文件数量.
	RetainedSources int `mapstructure:"retained_sources" rule:"min=0,max=4096"`
	// MaxSizeBytes 单个文件上限，0 表示不限制.
	MaxSizeBytes int64 `mapstructure:"max_size_bytes" rule:"min=0"`
}

func (c *UploadConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("upload.stall_timeout", DefaultStallTimeout)
	v.SetDefault("upload.retained_sources", DefaultRetainedSources)
	v.SetDefault("upload.max_size_bytes", DefaultMaxFileBytes)
}
