package router

import (
	"github.com/gin-gonic/gin"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/handle"
)

// RegisterSchedulerRoutes 维护任务（卡住任务回收、配额核对等）的查看与手动触发.
func RegisterSchedulerRoutes(g *gin.RouterGroup) {
	jobs := g.Group("/scheduler/jobs")
	jobs.GET("", handle.SchedulerJobs)
	jobs.GET("/:name", handle.SchedulerJob)
	jobs.POST("/:name/run", handle.SchedulerRunJob)
	jobs.POST("/stop", handle.SchedulerStopJobs)
	jobs.DELETE("/:name", handle.SchedulerRemoveJob)

	g.GET("/scheduler/queue/waiting", handle.SchedulerQueueWaiting)
}
