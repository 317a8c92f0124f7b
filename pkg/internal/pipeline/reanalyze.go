package pipeline

import (
	"context"
	"fmt"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/model"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store"
)

// Reanalyzer 同步的手动重新分析，错误直接返回给调用方.
type Reanalyzer struct {
	*runner
}

// Reanalyze 重新分析 owner 的记录；owner 为空表示管理员范围.
// 手动路径会覆盖人工修正并清除 is_user_edited.
func (r *Reanalyzer) Reanalyze(ctx context.Context, owner, id string) (*model.MediaRecord, error) {
	rec, err := r.store.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if rec.URL() == "" {
		return nil, ErrMissingURL
	}

	switch rec.Status {
	case media.StatusProcessing:
		return nil, ErrAlreadyProcessing
	case media.StatusUploading:
		return nil, fmt.Errorf("%w: upload not finished", store.ErrStateConflict)
	}

	proc, err := r.store.Transition(ctx, id, store.Guard{From: media.Reanalyzable, Owner: owner},
		media.StatusProcessing, store.ClearError())
	if err != nil {
		if isMovedOn(err) {
			return nil, ErrAlreadyProcessing
		}

		return nil, err
	}

	if err := r.run(ctx, proc, true); err != nil {
		return nil, err
	}

	return r.store.Find(ctx, id)
}
