package configs

import (
	"net"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPort         = 8080      // 监听端口
	DefaultHost         = "0.0.0.0" // 监听地址
	DefaultReloadConfig = true      // 是否启用配置热重载
	DefaultDebug        = false     // 是否启用调试模式
	DefaultTimeout      = 30 * time.Second
	DefaultIdleTimeout  = 2 * time.Minute

	DefaultMaxUploadBytes = 2 << 30 // 2GB
)

type (
	// ServerConfig 服务器配置.
	// Timeout 只作用于读请求头与普通请求，上传与 SSE 不受此限制.
	ServerConfig struct {
		Port         int    `mapstructure:"port"          rule:"min=1,max=65535"`
		Host         string `mapstructure:"host"          rule:"ip"`
		ReloadConfig bool   `mapstructure:"reload_config"`
		Debug        bool   `mapstructure:"debug"`
		// Timeout 读取请求头的超时.
		Timeout time.Duration `mapstructure:"timeout"`
		// IdleTimeout keep-alive 连接的空闲上限.
		IdleTimeout time.Duration `mapstructure:"idle_timeout"`
		// ShutdownGrace 优雅退出时等待请求与消费者结束的时间.
		ShutdownGrace time.Duration `mapstructure:"shutdown_grace"`
		// MaxUploadBytes 单次 multipart 请求体上限.
		MaxUploadBytes int64 `mapstructure:"max_upload_bytes" rule:"min=0"`
		// CORSOrigins 允许的前端来源，为空时放开全部来源（不带凭证）.
		CORSOrigins []string `mapstructure:"cors_origins"`
	}
)

// Addr 监听地址.
func (s *ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

func (s *ServerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.reload_config", DefaultReloadConfig)
	v.SetDefault("server.debug", DefaultDebug)
	v.SetDefault("server.timeout", DefaultTimeout)
	v.SetDefault("server.idle_timeout", DefaultIdleTimeout)
	v.SetDefault("server.shutdown_grace", "15s")
	v.SetDefault("server.max_upload_bytes", DefaultMaxUploadBytes)
	v.SetDefault("server.cors_origins", []string{})
}
