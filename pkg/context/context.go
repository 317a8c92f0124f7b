// Package context 拓展上下文功能，将存储、流水线服务等集成到上下文中，方便在请求和任务里传递.
package context

import (
	"context"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/cache"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/pipeline"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/realtime"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage"
	dbc "github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage/db"
	kvc "github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage/kv"
	mqc "github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage/mq"
	s3c "github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage/s3"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/uploader"
)

type ContextKey string

const (
	StorageManagerKey ContextKey = "storageManager"
	ServicesKey       ContextKey = "services"
)

// Services 进程内共享的领域服务.
type Services struct {
	Store    *store.Store
	Pipeline *pipeline.Pipeline
	Uploader *uploader.Coordinator
	Hub      *realtime.Hub
	Blobs    uploader.Blobs
	// Stats 管理端统计的响应缓存，可以为 nil
	Stats *cache.Cache
}

// WithStorageManager 将 Manager 存储到 context 中.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, StorageManagerKey, mgr)
}

// GetManager 从 context 中获取 Manager.
func GetManager(ctx context.Context) *storage.Manager {
	if mgr, ok := ctx.Value(StorageManagerKey).(*storage.Manager); ok {
		return mgr
	}

	return nil
}

// WithServices 将领域服务存储到 context 中.
func WithServices(ctx context.Context, svc *Services) context.Context {
	return context.WithValue(ctx, ServicesKey, svc)
}

// GetServices 从 context 中获取领域服务.
func GetServices(ctx context.Context) *Services {
	if svc, ok := ctx.Value(ServicesKey).(*Services); ok {
		return svc
	}

	return nil
}

// GetS3Client 从 context 中获取 S3 客户端.
func GetS3Client(ctx context.Context) *s3c.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetS3Client()
	}

	return nil
}

// GetDBClient 从 context 中获取 DB 客户端.
func GetDBClient(ctx context.Context) *dbc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetDBClient()
	}

	return nil
}

// GetMQClient 从 context 中获取 MQ 客户端.
func GetMQClient(ctx context.Context) *mqc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetMQClient()
	}

	return nil
}

// GetKVClient 从 context 中获取 KV 客户端.
func GetKVClient(ctx context.Context) *kvc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetKVClient()
	}

	return nil
}
