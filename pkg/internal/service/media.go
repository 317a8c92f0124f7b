package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/model"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/pipeline"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/types"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/uploader"
	nlog "github.com/omgitsguppey/SmartMedia-CMS/pkg/log"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// MediaService 当前用户的媒体操作.
type MediaService struct {
	store    *store.Store
	pipeline *pipeline.Pipeline
	uploader *uploader.Coordinator
	blobs    uploader.Blobs
	logger   zerolog.Logger
}

// NewMediaService 从 context 取出依赖.
func NewMediaService(ctx context.Context) (*MediaService, error) {
	svc, err := services(ctx)
	if err != nil {
		return nil, err
	}

	return &MediaService{
		store:    svc.Store,
		pipeline: svc.Pipeline,
		uploader: svc.Uploader,
		blobs:    svc.Blobs,
		logger:   nlog.Component("media-service"),
	}, nil
}

func (s *MediaService) view(rec *model.MediaRecord) types.MediaView {
	if s.uploader == nil {
		return types.RecordView(rec)
	}

	return types.NewMediaView(s.uploader.Overlay().View(rec))
}

// Upload 发起上传并等待传输结束. 传输失败时同时返回已写成 failed 的记录.
func (s *MediaService) Upload(ctx context.Context, owner string, src uploader.Source) (*types.MediaView, error) {
	if s.uploader == nil {
		return nil, ErrUnavailable
	}

	t, err := s.uploader.Initiate(ctx, owner, src)
	if err != nil {
		return nil, err
	}

	rec, err := t.Wait(ctx)
	if err != nil {
		// 失败记录已由传输协程写入
		if failed, ferr := s.store.Find(context.WithoutCancel(ctx), t.ID()); ferr == nil {
			v := s.view(failed)

			return &v, err
		}

		return nil, err
	}

	v := s.view(rec)

	return &v, nil
}

// List 按创建时间倒序分页. owner 为空时列出全部用户.
func (s *MediaService) List(ctx context.Context, owner string, q types.ListMediaQuery) (*types.ListMediaResponse, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	limit = min(limit, maxPageSize)

	f := store.ListFilter{Owner: owner, Limit: limit, Offset: q.Offset}

	if q.Status != "" {
		st, ok := media.ParseStatus(q.Status)
		if !ok {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidQuery, q.Status)
		}

		f.Status = st
	}

	recs, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}

	out := &types.ListMediaResponse{Items: make([]types.MediaView, 0, len(recs)), Total: total, Limit: limit, Offset: q.Offset}
	for i := range recs {
		out.Items = append(out.Items, s.view(&recs[i]))
	}

	return out, nil
}

// Get 读取一条记录. owner 为空表示管理员范围.
func (s *MediaService) Get(ctx context.Context, owner, id string) (*types.MediaView, error) {
	rec, err := s.store.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	v := s.view(rec)

	return &v, nil
}

// Delete 删除记录与对象. 进行中的传输先被取消.
func (s *MediaService) Delete(ctx context.Context, owner, id string) error {
	if s.uploader != nil {
		if t, ok := s.uploader.Active(id); ok && (owner == "" || t.Owner() == owner) {
			t.Cancel()
			<-t.Done()
		}
	}

	rec, err := s.store.Delete(ctx, owner, id)
	if err != nil {
		return err
	}

	if s.blobs != nil {
		if err := s.blobs.Remove(ctx, rec.StoragePath); err != nil {
			// 记录已删除，孤儿对象留给存储生命周期规则
			nlog.WithTrace(ctx, s.logger).Warn().Err(err).Str("record_id", id).Str("key", rec.StoragePath).Msg("remove blob failed")
		}
	}

	return nil
}

// Cancel 取消进行中的上传. 没有进行中的传输时返回 ErrStateConflict.
func (s *MediaService) Cancel(ctx context.Context, owner, id string) (*types.MediaView, error) {
	if s.uploader == nil {
		return nil, ErrUnavailable
	}

	t, ok := s.uploader.Active(id)
	if !ok || t.Owner() != owner {
		if _, err := s.store.Get(ctx, owner, id); err != nil {
			return nil, err
		}

		return nil, fmt.Errorf("%w: no transfer in progress", store.ErrStateConflict)
	}

	t.Cancel()

	select {
	case <-t.Done():
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return s.Get(ctx, owner, id)
}

// Retry 重试失败的上传，等待新的传输结束.
func (s *MediaService) Retry(ctx context.Context, owner, id string) (*types.MediaView, error) {
	if s.uploader == nil {
		return nil, ErrUnavailable
	}

	t, err := s.uploader.Retry(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	rec, err := t.Wait(ctx)
	if err != nil {
		return nil, err
	}

	v := s.view(rec)

	return &v, nil
}

// Reanalyze 同步重新分析. owner 为空表示管理员范围.
func (s *MediaService) Reanalyze(ctx context.Context, owner, id string) (*types.MediaView, error) {
	if s.pipeline == nil {
		return nil, ErrUnavailable
	}

	rec, err := s.pipeline.Reanalyzer.Reanalyze(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	v := s.view(rec)

	return &v, nil
}

// EditAnalysis 人工修正标签、人物与结论. 记录必须已有分析结果.
func (s *MediaService) EditAnalysis(ctx context.Context, owner, id string, req types.AnalysisEditRequest) (*types.MediaView, error) {
	rec, err := s.store.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if !rec.HasAnalysis() {
		return nil, fmt.Errorf("%w: record has no analysis yet", store.ErrStateConflict)
	}

	rec, err = s.store.Update(ctx, owner, id, store.AnalysisEdit(req.Tags, req.People, media.Verdict(req.Verdict)))
	if err != nil {
		return nil, err
	}

	v := s.view(rec)

	return &v, nil
}

// RenamePerson 在用户全部记录中重命名人物.
func (s *MediaService) RenamePerson(ctx context.Context, owner string, req types.RenamePersonRequest) (int, error) {
	if strings.TrimSpace(req.From) == strings.TrimSpace(req.To) {
		return 0, nil
	}

	return s.store.RenamePerson(ctx, owner, req.From, req.To)
}
