// Package app 组装并运行 HTTP 服务、事件消费者与定时任务.
package app

import (
	contextPkg "context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/api"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/context"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/jobs"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/log"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/metrics"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/middleware"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/scheduler"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/tracing"
)

const defaultShutdownGrace = 15 * time.Second

type App struct {
	Engine *gin.Engine

	config    *configs.AppConfig
	manager   *storage.Manager
	services  *context.Services
	scheduler *scheduler.Scheduler
	logger    zerolog.Logger
}

// Bootstrap 加载配置并初始化日志、追踪、指标与存储，供 serve 与其它子命令共用.
func Bootstrap(ctx contextPkg.Context, configPath string) (*configs.AppConfig, *storage.Manager, error) {
	if err := configs.InitConfig(configPath); err != nil {
		return nil, nil, fmt.Errorf("init config: %w", err)
	}

	if err := configs.Validate(); err != nil {
		return nil, nil, err
	}

	log.Init()

	config := configs.GetConfig()

	if err := tracing.InitTracer(config.Tracing); err != nil {
		return nil, nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(config.Metrics); err != nil {
		return nil, nil, fmt.Errorf("init metrics: %w", err)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	return config, manager, nil
}

// NewApp 创建完整的服务进程：HTTP 路由、事件订阅与定时任务.
func NewApp(ctx contextPkg.Context, configPath string) (*App, error) {
	config, manager, err := Bootstrap(ctx, configPath)
	if err != nil {
		return nil, err
	}

	svc, err := BuildServices(ctx, manager, config)
	if err != nil {
		_ = manager.Close()
		return nil, err
	}

	a := &App{config: config, manager: manager, services: svc, logger: log.Component("app")}

	if err := a.subscribe(); err != nil {
		_ = manager.Close()
		return nil, err
	}

	if a.scheduler, err = scheduler.NewScheduler(); err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	err = jobs.RegisterJobs(ctx, a.scheduler, jobs.Deps{Store: svc.Store, Pipeline: svc.Pipeline, Config: config.Pipeline})
	if err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("register jobs: %w", err)
	}

	a.Engine = a.newEngine()

	return a, nil
}

// subscribe 注册流水线与实时推送的事件消费者.
func (a *App) subscribe() error {
	if !a.config.Events.Enabled {
		a.logger.Warn().Msg("events disabled, analysis trigger and quota reconciler will not run")
		return nil
	}

	if err := a.services.Pipeline.Register(a.manager.MQ, a.config.Events.ConsumerGroup); err != nil {
		return err
	}

	return a.services.Hub.Register(a.manager.MQ, instanceID())
}

func (a *App) newEngine() *gin.Engine {
	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.CORSMiddleware(a.config.Server),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/v1/media/stream", "/metrics"})),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.GinLoggerMiddleware(),
		middleware.CircuitBreakerMiddleware(a.config.CircuitBreaker),
		middleware.StorageMiddleware(a.manager),
		middleware.ServicesMiddleware(a.services),
		middleware.SchedulerMiddleware(a.scheduler),
	)

	if a.config.Metrics.Enabled && a.config.Metrics.Endpoint == "" {
		_ = metrics.StartMetricsServer(a.config.Metrics, engine)
	}

	stats := middleware.CacheMiddleware(middleware.DefaultCacheConfig(a.services.Stats))

	return api.RegisterGroup(engine, a.config, stats)
}

// Run 启动服务并阻塞到 ctx 结束，随后按顺序优雅退出.
func (a *App) Run(ctx contextPkg.Context) error {
	srv := &http.Server{
		Addr:              a.config.Server.Addr(),
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.Timeout,
		IdleTimeout:       a.config.Server.IdleTimeout,
	}

	servers := []*http.Server{srv}

	if a.config.Metrics.Enabled && a.config.Metrics.Endpoint != "" {
		me := gin.New()
		_ = metrics.StartMetricsServer(a.config.Metrics, me)
		servers = append(servers, &http.Server{Addr: a.config.Metrics.Endpoint, Handler: me, ReadHeaderTimeout: 5 * time.Second})
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, s := range servers {
		g.Go(func() error {
			a.logger.Info().Str("addr", s.Addr).Msg("http server listening")

			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen %s: %w", s.Addr, err)
			}

			return nil
		})
	}

	if a.config.Events.Enabled {
		g.Go(func() error { return a.manager.MQ.Run(gctx) })
	}

	a.scheduler.Start()

	g.Go(func() error {
		<-gctx.Done()

		return a.shutdown(servers)
	})

	return g.Wait()
}

func (a *App) shutdown(servers []*http.Server) error {
	grace := a.config.Server.ShutdownGrace
	if grace <= 0 {
		grace = defaultShutdownGrace
	}

	ctx, cancel := contextPkg.WithTimeout(contextPkg.Background(), grace)
	defer cancel()

	a.logger.Info().Dur("grace", grace).Msg("shutting down")

	var errs []error

	// 先关 Hub，SSE 连接才会结束，Shutdown 不会一直等它们.
	a.services.Hub.Close()

	for _, s := range servers {
		if err := s.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown %s: %w", s.Addr, err))
		}
	}

	if err := a.services.Uploader.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("uploader: %w", err))
	}

	if err := a.scheduler.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("scheduler: %w", err))
	}

	if err := tracing.ShutdownTracer(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}

	if err := a.manager.Close(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}

	return errors.Join(errs...)
}

// instanceID 实时推送的订阅分组按实例区分.
func instanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return strconv.Itoa(os.Getpid())
	}

	return host + "-" + strconv.Itoa(os.Getpid())
}
