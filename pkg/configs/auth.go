package configs

import "github.com/spf13/viper"

// AuthConfig 控制统一身份认证：优先使用 oauth2-proxy 注入的请求头，
// 配置 JWTSecret 后也接受 HS256 Bearer Token.
type AuthConfig struct {
	Enabled         bool     `mapstructure:"enabled"`           // 开启认证校验
	SkipPaths       []string `mapstructure:"skip_paths"`        // 跳过认证的路径前缀（如 /metrics、/api/v1/health）
	DevAllowQuery   bool     `mapstructure:"dev_allow_query"`   // 开发模式允许用 ?user= 便于本地调试
	JWTSecret       string   `mapstructure:"jwt_secret"`        // HS256 密钥，为空时不解析 Bearer Token
	JWTIssuer       string   `mapstructure:"jwt_issuer"`        // 期望的 iss，为空不校验
	TrustRoleHeader bool     `mapstructure:"trust_role_header"` // 是否信任代理注入的 X-Role
	AdminUsers      []string `mapstructure:"admin_users"`       // 固定的管理员账号
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.dev_allow_query", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "")
	v.SetDefault("auth.trust_role_header", true)
	v.SetDefault("auth.admin_users", []string{})
	v.SetDefault("auth.skip_paths", []string{
		"/metrics",
		"/debug/pprof",
		"/api/v1/health",
		"/swagger",
	})
}
