// Package middleware 提供 gin 中间件：身份、角色、CORS、限流、熔断、追踪、指标、访问日志、响应缓存与依赖注入.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
)

const identityKey = "identity"

type identityCtxKey struct{}

var (
	errNoIdentity = errors.New("unauthorized")
	errBadToken   = errors.New("invalid bearer token")
)

// Identity 已认证的调用方.
type Identity struct {
	UID   string     `json:"uid"`
	Email string     `json:"email,omitempty"`
	Role  media.Role `json:"role"`
}

// IsAdmin 是否管理员.
func (i Identity) IsAdmin() bool {
	return i.Role == media.RoleAdmin
}

// Claims HS256 Bearer Token 的声明.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware 统一身份认证，按顺序尝试：
//   - oauth2-proxy 注入的 X-Auth-Request-Email / X-Forwarded-Email / X-Auth-Request-User
//   - 配置了 jwt_secret 时的 Authorization: Bearer <HS256 JWT>
//   - 开发模式下的 ?user= 兜底（由 configs.auth.dev_allow_query 控制）
//
// 支持通过配置跳过某些路径（如 /metrics, /health）. 认证关闭时以 ?user= 或匿名用户放行.
func AuthMiddleware(conf configs.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSkippedPath(c.Request.URL.Path, conf.SkipPaths) {
			c.Next()
			return
		}

		id, err := resolveIdentity(c, conf)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		setIdentity(c, id)
		c.Next()
	}
}

func resolveIdentity(c *gin.Context, conf configs.AuthConfig) (Identity, error) {
	var id Identity

	email := firstHeader(c, "X-Auth-Request-Email", "X-Forwarded-Email")
	user := firstHeader(c, "X-Auth-Request-User", "X-Forwarded-User")

	switch {
	case email != "" || user != "":
		id.Email = email
		id.UID = email
		if id.UID == "" {
			id.UID = user
		}

		if conf.TrustRoleHeader {
			id.Role = parseRole(c.GetHeader("X-Role"))
		}
	case conf.JWTSecret != "" && bearer(c) != "":
		claims, err := ParseToken(bearer(c), conf)
		if err != nil {
			return id, err
		}

		id.UID = claims.Subject
		id.Email = claims.Email
		id.Role = parseRole(claims.Role)
	case conf.DevAllowQuery || !conf.Enabled:
		id.UID = strings.TrimSpace(c.Query("user"))
		if id.UID == "" && !conf.Enabled {
			id.UID = "anonymous"
		}

		id.Role = parseRole(c.GetHeader("X-Role"))
	}

	if id.UID == "" {
		return id, errNoIdentity
	}

	if slices.Contains(conf.AdminUsers, id.UID) || (id.Email != "" && slices.Contains(conf.AdminUsers, id.Email)) {
		id.Role = media.RoleAdmin
	}

	if id.Role == "" {
		id.Role = media.RoleUser
	}

	return id, nil
}

// ParseToken 校验 HS256 签名、过期时间与 issuer.
func ParseToken(raw string, conf configs.AuthConfig) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if conf.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(conf.JWTIssuer))
	}

	claims := &Claims{}

	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(conf.JWTSecret), nil
	}, opts...)
	if err != nil {
		return nil, errBadToken
	}

	if claims.Subject == "" {
		return nil, errBadToken
	}

	return claims, nil
}

// SignToken 签发 HS256 Token，CLI 与测试使用.
func SignToken(conf configs.AuthConfig, uid, email string, role media.Role, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = uid
	if conf.JWTIssuer != "" {
		claims.Issuer = conf.JWTIssuer
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Email: email, Role: string(role), RegisteredClaims: claims})

	return tok.SignedString([]byte(conf.JWTSecret))
}

func setIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
	c.Set("role", id.Role)
	c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
}

// WithIdentity 把身份写入 context，供下游 service 使用.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFrom 从 context 读取身份.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(Identity)

	return id, ok && id.UID != ""
}

// GetIdentity 从 gin.Context 获取身份，回退到 request context.
func GetIdentity(c *gin.Context) (Identity, bool) {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(Identity); ok && id.UID != "" {
			return id, true
		}
	}

	return IdentityFrom(c.Request.Context())
}

func firstHeader(c *gin.Context, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(c.GetHeader(n)); v != "" {
			return v
		}
	}

	return ""
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}

	return ""
}

func isSkippedPath(path string, skips []string) bool {
	if path == "" || len(skips) == 0 {
		return false
	}

	for _, p := range skips {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}
