// Package router 管理路由配置，将路径与 pkg/internal/handle 中的处理器绑定到 gin 路由组.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/handle"
)

// RegisterUserRoutes 注册当前用户可用的路由.
func RegisterUserRoutes(g *gin.RouterGroup) {
	g.GET("/ping", handle.Ping)
	g.GET("/me", handle.Me)
}

// RegisterMediaRoutes 注册媒体路由：
//
//	POST   /media                   -> UploadMedia
//	GET    /media                   -> ListMedia
//	GET    /media/stream            -> StreamMedia (SSE)
//	POST   /media/people/rename     -> RenamePerson
//	GET    /media/:id               -> GetMedia
//	DELETE /media/:id               -> DeleteMedia
//	POST   /media/:id/cancel        -> CancelUpload
//	POST   /media/:id/retry         -> RetryUpload
//	POST   /media/:id/reanalyze     -> ReanalyzeMedia
//	PATCH  /media/:id/analysis      -> EditAnalysis
func RegisterMediaRoutes(g *gin.RouterGroup) {
	mediaRoutes := g.Group("/media")
	{
		mediaRoutes.POST("", handle.UploadMedia)
		mediaRoutes.GET("", handle.ListMedia)
		mediaRoutes.GET("/stream", handle.StreamMedia)
		mediaRoutes.POST("/people/rename", handle.RenamePerson)
		mediaRoutes.GET("/:id", handle.GetMedia)
		mediaRoutes.DELETE("/:id", handle.DeleteMedia)
		mediaRoutes.POST("/:id/cancel", handle.CancelUpload)
		mediaRoutes.POST("/:id/retry", handle.RetryUpload)
		mediaRoutes.POST("/:id/reanalyze", handle.ReanalyzeMedia)
		mediaRoutes.PATCH("/:id/analysis", handle.EditAnalysis)
	}
}

// RegisterAdminRoutes 注册管理路由，g 上应已挂载 RequireAdmin.
func RegisterAdminRoutes(g *gin.RouterGroup) {
	g.GET("/media", handle.AdminListMedia)
	g.PATCH("/media/:id/moderation", handle.AdminModerate)
	g.POST("/media/:id/reanalyze", handle.AdminReanalyze)
	g.PUT("/users/:uid/quota", handle.AdminSetQuota)
	g.POST("/users/:uid/recount", handle.AdminRecount)
	g.POST("/watchdog/sweep", handle.AdminSweep)
}
