// Package api 把各路由组挂到 gin 引擎上，统一 /api/v1 前缀与鉴权边界.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/router"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/middleware"
)

// Prefix API 路由前缀.
const Prefix = "/api/v1"

// RegisterGroup 注册全部 API 路由. 健康检查与 swagger 不经过鉴权也不限流，
// 限流挂在鉴权之后以便按用户计数. /admin 下的路由额外要求管理员角色，stats 为统计接口的响应缓存.
func RegisterGroup(e *gin.Engine, cfg *configs.AppConfig, stats gin.HandlerFunc) *gin.Engine {
	router.RegisterSwaggerRoute(e, cfg.Server)

	v1 := e.Group(Prefix)
	router.RegisterHealthCheckRoute(v1)

	authed := v1.Group("", middleware.AuthMiddleware(cfg.Auth), middleware.RateLimitMiddleware(cfg.RateLimit))
	router.RegisterUserRoutes(authed)
	router.RegisterMediaRoutes(authed)

	admin := authed.Group("/admin", middleware.RequireAdmin())
	router.RegisterAdminRoutes(admin)
	router.RegisterStatsRoutes(admin, stats)
	router.RegisterSchedulerRoutes(admin)

	return e
}
