package app

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/cache"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	ctxPkg "github.com/omgitsguppey/SmartMedia-CMS/pkg/context"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/analyzer"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/pipeline"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/realtime"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/uploader"
)

// 缓存命名空间.
const (
	profileNamespace = "profile"
	statsNamespace   = "http"
)

// BuildServices 在已初始化的存储资源之上组装领域服务.
// serve 与 CLI 子命令共用，是否订阅事件由调用方决定.
func BuildServices(ctx context.Context, mgr *storage.Manager, cfg *configs.AppConfig) (*ctxPkg.Services, error) {
	var pub message.Publisher
	if cfg.Events.Enabled {
		pub = mgr.MQ.Publisher()
	}

	st := store.New(mgr.DB.DB, pub,
		store.WithDefaultQuota(cfg.Quota.DefaultBytes),
		store.WithProducer(cfg.Events.Producer),
	)

	if cfg.DB.AutoMigrate {
		if err := st.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	pipe := pipeline.New(pipeline.Deps{
		Store:     st,
		Analyzer:  analyzer.NewGuarded(analyzer.NewGemini(cfg.Analyzer, mgr.S3), cfg.Analyzer),
		Cache:     cache.NewCache(mgr.KV, cache.WithNamespace(profileNamespace)),
		Publisher: pub,
		Pipeline:  cfg.Pipeline,
		Quota:     cfg.Quota,
	})

	up, err := uploader.New(st, mgr.S3, pipe.Guard, cfg.Upload)
	if err != nil {
		return nil, fmt.Errorf("uploader: %w", err)
	}

	return &ctxPkg.Services{
		Store:    st,
		Pipeline: pipe,
		Uploader: up,
		Hub:      realtime.NewHub(realtime.DefaultBuffer),
		Blobs:    mgr.S3,
		Stats:    cache.NewCache(mgr.KV, cache.WithNamespace(statsNamespace)),
	}, nil
}
