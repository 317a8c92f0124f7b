package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/cache"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/pipeline"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/types"
	nlog "github.com/omgitsguppey/SmartMedia-CMS/pkg/log"
)

// AdminService 跨用户的管理操作.
type AdminService struct {
	*MediaService
	pipeline *pipeline.Pipeline
	stats    *cache.Cache
	logger   zerolog.Logger
}

// NewAdminService 从 context 取出依赖.
func NewAdminService(ctx context.Context) (*AdminService, error) {
	ms, err := NewMediaService(ctx)
	if err != nil {
		return nil, err
	}

	svc, _ := services(ctx)

	return &AdminService{
		MediaService: ms,
		pipeline:     ms.pipeline,
		stats:        svc.Stats,
		logger:       nlog.Component("admin-service"),
	}, nil
}

// Moderate 设置审核状态与可见性.
func (s *AdminService) Moderate(ctx context.Context, id string, req types.ModerationRequest) (*types.MediaView, error) {
	status, vis := media.AdminStatus(req.AdminStatus), media.Visibility(req.Visibility)
	if status == "" && vis == "" {
		return nil, ErrEmptyUpdate
	}

	rec, err := s.store.Update(ctx, "", id, store.Moderation(status, vis))
	if err != nil {
		return nil, err
	}

	s.dropStats(ctx)

	v := s.view(rec)

	return &v, nil
}

// SetQuota 设置配额并丢弃预检缓存.
func (s *AdminService) SetQuota(ctx context.Context, uid string, bytes int64) (*types.QuotaResponse, error) {
	p, err := s.store.SetQuota(ctx, uid, bytes)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, uid)

	return &types.QuotaResponse{UID: p.UID, QuotaBytes: p.QuotaBytes, UsedBytes: p.UsedBytes, RemainingBytes: p.Remaining()}, nil
}

// Recount 按实际记录重算已用字节.
func (s *AdminService) Recount(ctx context.Context, uid string) (*types.QuotaResponse, error) {
	p, err := s.store.Recount(ctx, uid)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, uid)

	nlog.WithTrace(ctx, s.logger).Info().Str("owner", uid).Int64("used", p.UsedBytes).Msg("usage recounted")

	return &types.QuotaResponse{UID: p.UID, QuotaBytes: p.QuotaBytes, UsedBytes: p.UsedBytes, RemainingBytes: p.Remaining()}, nil
}

// Sweep 立即回收卡住的分析与遗弃的上传.
func (s *AdminService) Sweep(ctx context.Context) (*types.SweepResponse, error) {
	if s.pipeline == nil {
		return nil, ErrUnavailable
	}

	stuck, err := s.pipeline.Watchdog.Sweep(ctx)
	if err != nil {
		return nil, err
	}

	abandoned, err := s.pipeline.Watchdog.ReclaimAbandoned(ctx)
	if err != nil {
		return nil, err
	}

	if stuck.Reclaimed+abandoned.Reclaimed > 0 {
		s.dropStats(ctx)
	}

	return &types.SweepResponse{
		Stuck:     types.SweepCounts(stuck),
		Abandoned: types.SweepCounts(abandoned),
	}, nil
}

func (s *AdminService) invalidate(ctx context.Context, uid string) {
	if s.pipeline == nil {
		return
	}

	if err := s.pipeline.Guard.Invalidate(ctx, uid); err != nil {
		nlog.WithTrace(ctx, s.logger).Warn().Err(err).Str("owner", uid).Msg("invalidate quota cache failed")
	}
}

// dropStats 让缓存的统计响应失效，下一次请求重新聚合.
func (s *AdminService) dropStats(ctx context.Context) {
	if s.stats == nil {
		return
	}

	if err := s.stats.Clear(ctx); err != nil {
		nlog.WithTrace(ctx, s.logger).Warn().Err(err).Msg("clear stats cache failed")
	}
}
