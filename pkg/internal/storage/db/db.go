// Package db 负责打开 gorm 数据库连接，按配置选择 PostgreSQL、MySQL 或 SQLite 驱动.
package db

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	gormPrometheus "gorm.io/plugin/prometheus"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	nlog "github.com/omgitsguppey/SmartMedia-CMS/pkg/log"
)

// DialectorFactory 由配置构造 dialector，驱动相关的选项在各自文件里处理.
type DialectorFactory func(cfg configs.DBConfig) gorm.Dialector

// dialectorFactories 存储数据库类型到 dialector 工厂的映射.
var dialectorFactories = map[configs.DBType]DialectorFactory{}

// RegisterDialectorFactory 注册数据库 dialector 工厂函数.
func RegisterDialectorFactory(dbType configs.DBType, factory DialectorFactory) {
	dialectorFactories[dbType] = factory
}

// GetRegisteredDBTypes 返回已注册的数据库类型列表.
func GetRegisteredDBTypes() []configs.DBType {
	types := make([]configs.DBType, 0, len(dialectorFactories))
	for dbType := range dialectorFactories {
		types = append(types, dbType)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// Client 包装 GORM DB 客户端.
type Client struct {
	*gorm.DB
}

// NowUTC 所有时间戳统一使用 UTC，保证看门狗按 updated_at 比较时跨驱动一致.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// New 按全局配置打开数据库.
func New(ctx context.Context) (*Client, error) {
	cfg := configs.GetConfig()

	return Open(ctx, cfg.DB, cfg.Metrics, cfg.Server.Debug)
}

// Open 按给定配置打开数据库并配置连接池.
func Open(ctx context.Context, cfg configs.DBConfig, metricsCfg configs.MetricsConfig, debug bool) (*Client, error) {
	if cfg.GetDSN() == "" {
		return nil, fmt.Errorf("failed to generate DSN for database type: %s", cfg.Type)
	}

	factory, exists := dialectorFactories[cfg.Type]
	if !exists {
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	level := logger.Warn
	if debug {
		level = logger.Info
	}

	gormLogger := logger.New(
		nlog.Logger(),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(factory(cfg), &gorm.Config{
		Logger:      gormLogger,
		PrepareStmt: true,
		NowFunc:     NowUTC,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	client := &Client{DB: db}
	if metricsCfg.Enabled {
		if err := client.RegisterGORMMetrics(cfg.Database, metricsCfg.CollectInterval); err != nil {
			return nil, fmt.Errorf("failed to register GORM metrics: %w", err)
		}
	}

	nlog.Logger().Info().
		Str("type", cfg.GetDBType()).
		Str("host", cfg.Host).
		Str("database", cfg.Database).
		Msg("database connected")

	return client, nil
}

// AutoMigrate 迁移给定模型.
func (c *Client) AutoMigrate(ctx context.Context, models ...any) error {
	if err := c.DB.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	return nil
}

// HealthCheck 检查连接可用.
func (c *Client) HealthCheck(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

// Close 关闭底层连接池.
func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

const defaultGORMMetricsRefreshInterval = 15 // 秒

// RegisterGORMMetrics 注册 GORM 连接池指标，不启动独立服务器.
func (c *Client) RegisterGORMMetrics(dbName string, interval time.Duration) error {
	refresh := uint32(interval / time.Second)
	if refresh == 0 {
		refresh = defaultGORMMetricsRefreshInterval
	}

	promConfig := gormPrometheus.Config{
		DBName:          dbName,
		RefreshInterval: refresh,
		StartServer:     false,
	}

	if err := c.Use(gormPrometheus.New(promConfig)); err != nil {
		return fmt.Errorf("failed to register GORM prometheus plugin: %w", err)
	}

	return nil
}
