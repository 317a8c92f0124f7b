// Package uploader 实现客户端上传协调：创建占位记录、驱动可取消的传输、
// 跟踪进度、检测停滞，并在失败后按需重试.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/model"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store"
	nlog "github.com/omgitsguppey/SmartMedia-CMS/pkg/log"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/metrics"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/tracing"
)

var (
	// ErrUnsupportedType 不是图片、视频或音频.
	ErrUnsupportedType = errors.New("unsupported media type")
	// ErrTooLarge 超过单文件上限.
	ErrTooLarge = errors.New("file exceeds upload size limit")
	// ErrSourceLost 原始文件已不在内存中，需要重新选择.
	ErrSourceLost = errors.New("original file is no longer available, select it again")
	// ErrCanceled 上传被取消.
	ErrCanceled = errors.New("upload canceled")
	// ErrStalled 上传在 stall_timeout 内没有任何进度.
	ErrStalled = errors.New("upload stalled")
	// ErrNotRetryable 只有传输阶段失败的记录可以重试，分析失败走重新分析.
	ErrNotRetryable = errors.New("only failed uploads can be retried")
)

// Blobs 对象存储.
type Blobs interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string,
		onProgress func(sent, total int64)) (minio.UploadInfo, error)
	Abort(ctx context.Context, key string) error
	Remove(ctx context.Context, key string) error
	DownloadURL(ctx context.Context, key string) (string, error)
}

// QuotaChecker 上传前的配额预检.
type QuotaChecker interface {
	Check(ctx context.Context, owner string, size int64) error
}

// Coordinator 上传协调器.
type Coordinator struct {
	store   *store.Store
	blobs   Blobs
	quota   QuotaChecker
	cfg     configs.UploadConfig
	overlay *Overlay
	// sources 失败后仍可重试的源，按记录 ID 索引；nil 表示不保留
	sources *lru.Cache[string, Source]
	logger  zerolog.Logger

	mu     sync.Mutex
	active map[string]*Transfer
	wg     sync.WaitGroup
}

// New 创建协调器. quota 为 nil 时不做配额预检.
func New(s *store.Store, blobs Blobs, quota QuotaChecker, cfg configs.UploadConfig) (*Coordinator, error) {
	if cfg.StallTimeout <= 0 {
		cfg.StallTimeout = configs.DefaultStallTimeout
	}

	c := &Coordinator{
		store:   s,
		blobs:   blobs,
		quota:   quota,
		cfg:     cfg,
		overlay: NewOverlay(),
		logger:  nlog.Component("uploader"),
		active:  make(map[string]*Transfer),
	}

	if cfg.RetainedSources > 0 {
		sources, err := lru.New[string, Source](cfg.RetainedSources)
		if err != nil {
			return nil, fmt.Errorf("retained sources: %w", err)
		}

		c.sources = sources
	}

	return c, nil
}

// Overlay 本地上传状态.
func (c *Coordinator) Overlay() *Overlay {
	return c.overlay
}

// ObjectKey 对象键 media/{owner}/{id}/{name}，每一段都不能跨出自己的目录.
func ObjectKey(owner, id, name string) string {
	return path.Join("media", keySegment(owner, "_"), keySegment(id, "_"), keySegment(name, "file"))
}

var segmentReplacer = strings.NewReplacer("/", "_", "\\", "_")

func keySegment(s, fallback string) string {
	s = segmentReplacer.Replace(strings.TrimSpace(s))
	if s == "" || s == "." || s == ".." {
		return fallback
	}

	return s
}

// Initiate 校验源、预检配额、创建 uploading 记录，然后在后台开始传输.
// 传输的生命周期受 ctx 约束：ctx 取消等同于用户取消.
func (c *Coordinator) Initiate(ctx context.Context, owner string, src Source) (*Transfer, error) {
	mimeType := media.BaseMIME(src.MimeType())
	if _, ok := media.CategoryOf(mimeType); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, src.MimeType())
	}

	size := src.Size()
	if size < 0 {
		return nil, fmt.Errorf("%s: unknown size", src.Name())
	}

	if c.cfg.MaxSizeBytes > 0 && size > c.cfg.MaxSizeBytes {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, size, c.cfg.MaxSizeBytes)
	}

	if c.quota != nil {
		if err := c.quota.Check(ctx, owner, size); err != nil {
			return nil, err
		}
	}

	id := store.NewID(c.store.Now())
	rec := &model.MediaRecord{
		ID:          id,
		OwnerID:     owner,
		FileName:    src.Name(),
		StoragePath: ObjectKey(owner, id, src.Name()),
		MimeType:    mimeType,
		SizeBytes:   size,
		Status:      media.StatusUploading,
	}

	if err := c.store.Create(ctx, rec); err != nil {
		return nil, err
	}

	if c.sources != nil && canRetain(src) {
		c.sources.Add(id, src)
	}

	c.overlay.Set(id, Entry{Status: media.StatusUploading, PreviewURL: previewOf(src)})

	tctx, cancel := context.WithCancelCause(ctx)
	t := &Transfer{id: id, owner: owner, cancel: cancel, done: make(chan struct{})}

	c.mu.Lock()
	c.active[id] = t
	c.mu.Unlock()

	c.wg.Add(1)

	go c.transfer(tctx, t, rec, src)

	c.logger.Info().Str("record_id", id).Str("owner", owner).Str("mime", mimeType).
		Int64("size", size).Msg("upload started")

	return t, nil
}

// Cancel 取消进行中的传输；没有进行中的传输时返回 false.
func (c *Coordinator) Cancel(id string) bool {
	c.mu.Lock()
	t, ok := c.active[id]
	c.mu.Unlock()

	if !ok {
		return false
	}

	t.Cancel()

	return true
}

// Active 进行中的传输.
func (c *Coordinator) Active(id string) (*Transfer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.active[id]

	return t, ok
}

// Retry 重试传输失败的上传：删除旧记录与对象，用保留的源重新发起.
// 源已不可用时旧记录同样被删除，返回 ErrSourceLost.
// 上传已完成、失败在分析阶段的记录返回 ErrNotRetryable，对象与记录保持不动.
func (c *Coordinator) Retry(ctx context.Context, owner, id string) (*Transfer, error) {
	rec, err := c.store.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if rec.Status != media.StatusFailed {
		return nil, fmt.Errorf("%w: record is %s", ErrNotRetryable, rec.Status)
	}

	if !rec.ErrorCode.Transfer() {
		return nil, fmt.Errorf("%w: failed with %s, reanalyze instead", ErrNotRetryable, rec.ErrorCode)
	}

	var (
		src Source
		ok  bool
	)

	if c.sources != nil {
		src, ok = c.sources.Get(id)
		c.sources.Remove(id)
	}

	if err := c.blobs.Remove(ctx, rec.StoragePath); err != nil {
		c.logger.Warn().Err(err).Str("record_id", id).Msg("remove old blob failed")
	}

	if _, err := c.store.Delete(ctx, owner, id); err != nil {
		return nil, fmt.Errorf("delete failed record: %w", err)
	}

	if !ok {
		return nil, ErrSourceLost
	}

	return c.Initiate(ctx, rec.OwnerID, src)
}

// Shutdown 取消所有进行中的传输并等待它们写入终态.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	for _, t := range c.active {
		t.Cancel()
	}
	c.mu.Unlock()

	done := make(chan struct{})

	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) forget(id string) {
	c.mu.Lock()
	delete(c.active, id)
	c.mu.Unlock()
}

func (c *Coordinator) transfer(ctx context.Context, t *Transfer, rec *model.MediaRecord, src Source) {
	defer c.wg.Done()
	defer close(t.done)
	defer c.forget(t.id)

	ctx, span := tracing.StartSpan(ctx, "uploader.transfer")
	log := c.logger.With().Str("record_id", rec.ID).Str("owner", rec.OwnerID).Logger()

	stall := time.AfterFunc(c.cfg.StallTimeout, func() { t.cancel(ErrStalled) })
	defer stall.Stop()

	checksum, err := c.send(ctx, rec, src, func(sent, total int64) {
		stall.Reset(c.cfg.StallTimeout)

		if total > 0 {
			c.overlay.SetProgress(rec.ID, int(sent*100/total))
		}
	})
	stall.Stop()

	// 写终态不受调用方取消影响
	final := context.WithoutCancel(ctx)

	if err == nil {
		t.rec, err = c.complete(final, rec, checksum)
		if err == nil {
			tracing.EndSpan(span, nil)
			log.Info().Int64("size", rec.SizeBytes).Str("checksum", checksum).Msg("upload complete")

			return
		}
	}

	t.err = c.fail(final, rec, context.Cause(ctx), err, log)
	tracing.EndSpan(span, t.err)
}

// send 传输对象并返回 xxhash64 校验和.
func (c *Coordinator) send(ctx context.Context, rec *model.MediaRecord, src Source,
	onProgress func(sent, total int64),
) (string, error) {
	r, err := src.Open()
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer r.Close()

	h := xxhash.New()
	body := io.TeeReader(&ctxReader{ctx: ctx, r: r}, h)

	if _, err := c.blobs.Upload(ctx, rec.StoragePath, body, rec.SizeBytes, rec.MimeType, onProgress); err != nil {
		return "", err
	}

	return fmt.Sprintf("%016x", h.Sum64()), nil
}

func (c *Coordinator) complete(ctx context.Context, rec *model.MediaRecord, checksum string) (*model.MediaRecord, error) {
	c.overlay.Delete(rec.ID)

	url, err := c.blobs.DownloadURL(ctx, rec.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("download url: %w", err)
	}

	done, err := c.store.Transition(ctx, rec.ID, store.Guard{From: []media.Status{media.StatusUploading}},
		media.StatusPending, store.Uploaded(url, checksum, rec.SizeBytes))
	if err != nil {
		return nil, fmt.Errorf("finalize record: %w", err)
	}

	if c.sources != nil {
		c.sources.Remove(rec.ID)
	}

	metrics.UploadBytes.Add(float64(rec.SizeBytes))
	metrics.UploadOutcomes.WithLabelValues("ok").Inc()

	return done, nil
}

// fail 清理部分写入的对象并把记录写成 failed，返回给调用方的错误.
func (c *Coordinator) fail(ctx context.Context, rec *model.MediaRecord, cause, err error, log zerolog.Logger) error {
	c.overlay.Delete(rec.ID)

	code, out := classify(cause, err)

	if aerr := c.blobs.Abort(ctx, rec.StoragePath); aerr != nil {
		log.Warn().Err(aerr).Msg("abort partial upload failed")
	}

	_, terr := c.store.Transition(ctx, rec.ID, store.Guard{From: []media.Status{media.StatusUploading}},
		media.StatusFailed, store.Failure(code, out.Error(), c.store.Now()))
	if terr != nil {
		log.Error().Err(terr).AnErr("cause", out).Msg("could not record upload failure")
	}

	metrics.UploadOutcomes.WithLabelValues(string(code)).Inc()

	if code == media.CodeCanceled {
		log.Info().Str("code", string(code)).Msg("upload canceled")
	} else {
		log.Warn().Err(out).Str("code", string(code)).Msg("upload failed")
	}

	return out
}

func classify(cause, err error) (media.ErrorCode, error) {
	switch {
	case errors.Is(cause, ErrStalled):
		return media.CodeStalled, ErrStalled
	case errors.Is(cause, ErrCanceled), errors.Is(cause, context.Canceled):
		return media.CodeCanceled, ErrCanceled
	case err == nil:
		return media.CodeStorage, errors.New("upload failed")
	default:
		return media.CodeStorage, err
	}
}

// ctxReader 在 ctx 结束后拒绝继续读取，使阻塞在源上的传输尽快返回.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}

	return r.r.Read(p)
}
