package uploader

import (
	"sync"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/model"
)

// Entry 一条进行中上传的本地状态.
type Entry struct {
	Progress   int
	Status     media.Status
	PreviewURL string
}

// Overlay 只在本进程内存在的上传状态，按记录 ID 索引. 不会写回数据库.
type Overlay struct {
	mu sync.RWMutex
	m  map[string]Entry
}

// NewOverlay 创建空的 Overlay.
func NewOverlay() *Overlay {
	return &Overlay{m: make(map[string]Entry)}
}

// Set 设置一条记录的本地状态.
func (o *Overlay) Set(id string, e Entry) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.m[id] = e
}

// SetProgress 更新进度，条目不存在时忽略.
func (o *Overlay) SetProgress(id string, pct int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if e, ok := o.m[id]; ok {
		e.Progress = min(max(pct, 0), 100)
		o.m[id] = e
	}
}

// Get 读取一条记录的本地状态.
func (o *Overlay) Get(id string) (Entry, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	e, ok := o.m[id]

	return e, ok
}

// Delete 移除一条记录的本地状态.
func (o *Overlay) Delete(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.m, id)
}

// Len 条目数.
func (o *Overlay) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return len(o.m)
}

// View 展示用的记录：本地状态覆盖持久化记录的进度与状态.
type View struct {
	Record     model.MediaRecord
	PreviewURL string
	// Live 本地有进行中的传输
	Live bool
}

// View 返回 rec 的展示副本，rec 本身不会被修改.
func (o *Overlay) View(rec *model.MediaRecord) View {
	v := View{Record: *rec}

	if e, ok := o.Get(rec.ID); ok {
		v.Live = true
		v.Record.Progress = e.Progress
		v.PreviewURL = e.PreviewURL

		if e.Status != "" {
			v.Record.Status = e.Status
		}

		return v
	}

	if v.Record.Status != media.StatusUploading {
		v.Record.Progress = 100
	}

	return v
}
