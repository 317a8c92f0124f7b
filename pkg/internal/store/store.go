// Package store 是媒体记录与用户配额的持久化仓库.
// 每次提交成功的媒体记录写入都会在事务之后发布一条 sm.media.changed，
// 负载带写入前后的快照；发布失败只记日志，写入本身不回滚.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/model"
	dbc "github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage/db"
	nlog "github.com/omgitsguppey/SmartMedia-CMS/pkg/log"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/queue"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/tracing"
)

var (
	// ErrNotFound 记录或档案不存在（或不属于调用者）.
	ErrNotFound = errors.New("not found")
	// ErrStateConflict 条件写入未命中：记录已被其他写入者推进.
	ErrStateConflict = errors.New("state conflict")
	// ErrInvalidTransition 守卫里出现了非法的状态迁移.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Store 媒体记录与配额仓库.
type Store struct {
	db           *gorm.DB
	pub          message.Publisher
	now          func() time.Time
	logger       zerolog.Logger
	defaultQuota int64
	producer     string
}

// Option 配置 Store.
type Option func(*Store)

// WithClock 注入时钟，测试看门狗阈值时使用.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = func() time.Time { return now().UTC() } }
}

// WithLogger 指定日志.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithDefaultQuota 首次见到用户时创建档案使用的配额.
func WithDefaultQuota(bytes int64) Option {
	return func(s *Store) { s.defaultQuota = bytes }
}

// WithProducer 事件头里的 producer，默认是应用名.
func WithProducer(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.producer = name
		}
	}
}

// New 创建仓库. pub 为 nil 时不发布变更事件.
func New(db *gorm.DB, pub message.Publisher, opts ...Option) *Store {
	s := &Store{
		db:           db,
		pub:          pub,
		now:          dbc.NowUTC,
		logger:       nlog.Component("store"),
		defaultQuota: configs.DefaultQuotaBytes,
		producer:     configs.AppName,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Migrate 自动迁移仓库使用的表.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(model.All()...)
}

// Now 当前时间（UTC）.
func (s *Store) Now() time.Time {
	return s.now()
}

// DefaultQuota 新档案的默认配额.
func (s *Store) DefaultQuota() int64 {
	return s.defaultQuota
}

func snapshot(r *model.MediaRecord) *queue.RecordSnapshot {
	if r == nil {
		return nil
	}

	return &queue.RecordSnapshot{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Status:      r.Status,
		SizeBytes:   r.SizeBytes,
		MimeType:    r.MimeType,
		DownloadURL: r.URL(),
		ErrorCode:   r.ErrorCode,
		UpdatedAt:   r.UpdatedAt,
	}
}

// publish 在提交后发布变更.
func (s *Store) publish(ctx context.Context, before, after *model.MediaRecord) {
	if s.pub == nil {
		return
	}

	ref := after
	if ref == nil {
		ref = before
	}

	payload := queue.MediaChangedPayload{
		RecordID: ref.ID,
		OwnerID:  ref.OwnerID,
		Before:   snapshot(before),
		After:    snapshot(after),
	}

	id, err := queue.PublishMediaChanged(s.pub, payload,
		queue.WithProducer(s.producer),
		queue.WithTraceID(tracing.TraceID(ctx)),
		queue.WithOccurredAt(s.now()),
	)
	if err != nil {
		s.logger.Warn().Err(err).Str("record_id", ref.ID).Str("kind", string(payload.Kind())).
			Msg("publish media change failed")

		return
	}

	s.logger.Debug().Str("event_id", id).Str("record_id", ref.ID).Str("kind", string(payload.Kind())).
		Msg("media change published")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	return err
}
