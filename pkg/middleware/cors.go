package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
)

// CORSMiddleware 跨域配置. 配置了 cors_origins 时只放行这些来源并允许携带凭证.
func CORSMiddleware(cfg configs.ServerConfig) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Authorization", "X-Role", "X-Cache-Bypass", "If-None-Match",
		},
		ExposeHeaders: []string{"X-Cache", "ETag", "Age", "Retry-After", TraceHeader},
		MaxAge:        12 * time.Hour,
	}

	if len(cfg.CORSOrigins) == 0 || cfg.Debug {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = cfg.CORSOrigins
		config.AllowCredentials = true
	}

	return cors.New(config)
}
