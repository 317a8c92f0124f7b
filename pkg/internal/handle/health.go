package handle

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	ctxPkg "github.com/omgitsguppey/SmartMedia-CMS/pkg/context"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/types"
)

const checkTimeout = 2 * time.Second

// checker 返回 nil 表示组件可用.
type checker func(ctx context.Context) error

var checkers = map[string]checker{
	"db": func(ctx context.Context) error {
		dbc := ctxPkg.GetDBClient(ctx)
		if dbc == nil || dbc.DB == nil {
			return errNotInitialized
		}

		return dbc.HealthCheck(ctx)
	},
	"s3": func(ctx context.Context) error {
		s3c := ctxPkg.GetS3Client(ctx)
		if s3c == nil || s3c.Client == nil {
			return errNotInitialized
		}

		return s3c.HealthCheck(ctx)
	},
	"mq": func(ctx context.Context) error {
		mqc := ctxPkg.GetMQClient(ctx)
		if mqc == nil {
			return errNotInitialized
		}

		select {
		case <-mqc.Running():
			return nil
		default:
			return errRouterNotRunning
		}
	},
	// 写入并读回一个短 TTL 的探针键.
	"kv": func(ctx context.Context) error {
		kvc := ctxPkg.GetKVClient(ctx)
		if kvc == nil || kvc.KVStore == nil {
			return errNotInitialized
		}

		const key = "health:check"
		if err := kvc.Set(ctx, key, []byte("ok"), checkTimeout); err != nil {
			return err
		}

		_, err := kvc.Get(ctx, key)

		return err
	},
}

// HealthComponents 可单独探测的组件名，按字母序.
func HealthComponents() []string {
	names := make([]string, 0, len(checkers))
	for name := range checkers {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func runCheck(ctx context.Context, name string) types.ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := checkers[name](ctx)

	h := types.ComponentHealth{Component: name, Status: "ok", LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		h.Status = "unhealthy"
		h.Error = err.Error()
	}

	return h
}

// HealthComponent 返回单个组件的探测 handler.
//
//	@Summary	单组件健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Param		component	path		string	true	"db | s3 | mq | kv"
//	@Success	200			{object}	types.ComponentHealth
//	@Failure	503			{object}	types.ComponentHealth
//	@Router		/api/v1/health/{component} [get]
func HealthComponent(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := runCheck(c.Request.Context(), name)
		if h.Error != "" {
			c.JSON(http.StatusServiceUnavailable, h)
			return
		}

		c.JSON(http.StatusOK, h)
	}
}

// HealthReady 并发探测全部组件，任一不可用即 503.
//
//	@Summary	就绪检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	types.HealthReport
//	@Failure	503	{object}	types.HealthReport
//	@Router		/api/v1/health [get]
func HealthReady(c *gin.Context) {
	names := HealthComponents()
	report := types.HealthReport{Status: "ok", Components: make([]types.ComponentHealth, len(names))}

	var (
		g  errgroup.Group
		mu sync.Mutex
	)

	for i, name := range names {
		g.Go(func() error {
			h := runCheck(c.Request.Context(), name)

			mu.Lock()
			report.Components[i] = h
			if h.Error != "" {
				report.Status = "unhealthy"
			}
			mu.Unlock()

			return nil
		})
	}

	_ = g.Wait()

	if report.Status != "ok" {
		c.JSON(http.StatusServiceUnavailable, report)
		return
	}

	c.JSON(http.StatusOK, report)
}

// HealthLive 存活探针.
//
//	@Summary	存活检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/api/v1/health/live [get]
func HealthLive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
