package service

import (
	"context"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/types"
)

// StatsService 提供媒体统计（基于 media_records 表的聚合）.
type StatsService struct {
	store *store.Store
}

// NewStatsService 从 context 取出依赖.
func NewStatsService(ctx context.Context) (*StatsService, error) {
	svc, err := services(ctx)
	if err != nil {
		return nil, err
	}

	return &StatsService{store: svc.Store}, nil
}

// Summary 按状态与大类汇总数量和字节数. owner 为空统计全部用户.
func (s *StatsService) Summary(ctx context.Context, owner string) (*types.StatsSummary, error) {
	buckets, err := s.store.Aggregate(ctx, owner)
	if err != nil {
		return nil, err
	}

	out := &types.StatsSummary{
		ByStatus:   make(map[media.Status]types.StatsItem, len(media.Statuses)),
		ByCategory: make(map[media.Category]types.StatsItem, 3),
	}

	// 零值也输出，便于前端直接渲染
	for _, st := range media.Statuses {
		out.ByStatus[st] = types.StatsItem{}
	}

	for _, b := range buckets {
		add(&out.Total, b)

		item := out.ByStatus[b.Status]
		add(&item, b)
		out.ByStatus[b.Status] = item

		cat, ok := media.CategoryOf(b.MimeType)
		if !ok {
			continue
		}

		item = out.ByCategory[cat]
		add(&item, b)
		out.ByCategory[cat] = item
	}

	return out, nil
}

func add(item *types.StatsItem, b store.Bucket) {
	item.Count += b.Count
	item.Bytes += b.Bytes
}
