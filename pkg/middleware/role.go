package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
)

// parseRole 从字符串解析角色，未知值降级为 user.
func parseRole(s string) media.Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return media.RoleAdmin
	default:
		return media.RoleUser
	}
}

// GetRole 从 gin.Context 获取当前请求角色.
func GetRole(c *gin.Context) media.Role {
	if id, ok := GetIdentity(c); ok {
		return id.Role
	}

	return media.RoleUser
}

// RequireAdmin 要求管理员角色，不满足则返回 403.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != media.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: insufficient role"})
			return
		}

		c.Next()
	}
}
