package uploader

import (
	"context"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/model"
)

// Transfer 一次进行中的上传.
type Transfer struct {
	id     string
	owner  string
	cancel context.CancelCauseFunc
	done   chan struct{}

	// done 关闭后可读
	rec *model.MediaRecord
	err error
}

// ID 记录 ID.
func (t *Transfer) ID() string { return t.id }

// Owner 所属用户.
func (t *Transfer) Owner() string { return t.owner }

// Done 传输结束（成功或失败，记录已写入终态）后关闭.
func (t *Transfer) Done() <-chan struct{} { return t.done }

// Cancel 取消传输，已结束时无效果.
func (t *Transfer) Cancel() { t.cancel(ErrCanceled) }

// Wait 等待传输结束，返回进入 pending 的记录.
// ctx 只限制等待本身，不会取消传输.
func (t *Transfer) Wait(ctx context.Context) (*model.MediaRecord, error) {
	select {
	case <-t.done:
		return t.rec, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
