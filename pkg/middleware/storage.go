package middleware

import (
	stdctx "context"

	"github.com/gin-gonic/gin"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/context"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/scheduler"
)

type schedulerKey struct{}

// inject 把进程级依赖挂到请求 context 上，handler 与 service 通过 pkg/context 取用.
func inject(with func(stdctx.Context) stdctx.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(with(c.Request.Context()))
		c.Next()
	}
}

// StorageMiddleware 注入 DB、S3、MQ、KV 客户端.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	return inject(func(ctx stdctx.Context) stdctx.Context {
		return context.WithStorageManager(ctx, manager)
	})
}

// ServicesMiddleware 注入 store、流水线、上传器等领域服务.
func ServicesMiddleware(svc *context.Services) gin.HandlerFunc {
	return inject(func(ctx stdctx.Context) stdctx.Context {
		return context.WithServices(ctx, svc)
	})
}

// SchedulerMiddleware 注入定时任务调度器，供 /admin/scheduler 使用.
func SchedulerMiddleware(sched *scheduler.Scheduler) gin.HandlerFunc {
	return inject(func(ctx stdctx.Context) stdctx.Context {
		return stdctx.WithValue(ctx, schedulerKey{}, sched)
	})
}

// GetScheduler 取出调度器，未注入时返回 nil.
func GetScheduler(c *gin.Context) *scheduler.Scheduler {
	sched, _ := c.Request.Context().Value(schedulerKey{}).(*scheduler.Scheduler)

	return sched
}
