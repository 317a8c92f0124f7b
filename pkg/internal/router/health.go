package router

import (
	"github.com/gin-gonic/gin"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/handle"
)

// RegisterHealthCheckRoute /health 汇总所有依赖，/health/live 只表示进程存活.
func RegisterHealthCheckRoute(g *gin.RouterGroup) {
	h := g.Group("/health")
	h.GET("", handle.HealthReady)
	h.GET("/live", handle.HealthLive)

	for _, name := range handle.HealthComponents() {
		h.GET("/"+name, handle.HealthComponent(name))
	}
}
