// Package storage 聚合进程持有的外部资源：数据库、对象存储、KV 与消息总线.
//
// Example:
//
//	mgr, err := storage.Init(ctx)
//	if err != nil {
//		return err
//	}
//	defer mgr.Close()
//
//	db := mgr.GetDBClient()
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	dbc "github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage/db"
	kvc "github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage/kv"
	mqc "github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage/mq"
	s3c "github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage/s3"
	nlog "github.com/omgitsguppey/SmartMedia-CMS/pkg/log"
)

// Manager 聚合所有存储资源.
type Manager struct {
	DB *dbc.Client
	S3 *s3c.Client
	KV *kvc.Client
	MQ *mqc.Client
}

var (
	mgr     *Manager
	mgrErr  error
	mgrOnce sync.Once
)

// Init 按全局配置初始化全部资源，重复调用返回同一实例.
func Init(ctx context.Context) (*Manager, error) {
	mgrOnce.Do(func() {
		mgr, mgrErr = open(ctx)
	})

	return mgr, mgrErr
}

func open(ctx context.Context) (*Manager, error) {
	m := &Manager{}

	var err error

	if m.DB, err = dbc.New(ctx); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	if m.KV, err = kvc.NewKVClient(ctx); err != nil {
		_ = m.Close()

		return nil, fmt.Errorf("kv: %w", err)
	}

	if m.MQ, err = mqc.New(ctx); err != nil {
		_ = m.Close()

		return nil, fmt.Errorf("mq: %w", err)
	}

	if m.S3, err = s3c.New(ctx); err != nil {
		_ = m.Close()

		return nil, fmt.Errorf("s3: %w", err)
	}

	nlog.Logger().Info().Msg("storage manager initialized")

	return m, nil
}

// GetS3Client 获取 S3 客户端.
func (m *Manager) GetS3Client() *s3c.Client {
	return m.S3
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetMQClient 获取 MQ 客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// HealthCheck 检查数据库与对象存储.
func (m *Manager) HealthCheck(ctx context.Context) map[string]error {
	out := map[string]error{}

	if m.DB != nil {
		out["database"] = m.DB.HealthCheck(ctx)
	}

	if m.S3 != nil {
		out["s3"] = m.S3.HealthCheck(ctx)
	}

	return out
}

// Close 按依赖的逆序关闭资源.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.S3 != nil {
		errs = append(errs, m.S3.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}
