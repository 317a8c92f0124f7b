package router

import (
	"github.com/gin-gonic/gin"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/handle"
)

// RegisterStatsRoutes 注册统计路由. cached 为响应缓存中间件，可以为 nil.
func RegisterStatsRoutes(g *gin.RouterGroup, cached gin.HandlerFunc) {
	if cached == nil {
		g.GET("/stats", handle.GetMediaStats)
		return
	}

	g.GET("/stats", cached, handle.GetMediaStats)
}
