package uploader_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/pipeline"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store/storetest"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/uploader"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/queue"
)

var payload = []byte("0123456789ab")

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	aborted []string
	removed []string
	started chan string
	// hang 发送第一段后阻塞到 ctx 结束
	hang    bool
	failErr error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}, started: make(chan string, 8)}
}

func (b *fakeBlobs) Upload(ctx context.Context, key string, r io.Reader, size int64, _ string,
	onProgress func(sent, total int64),
) (minio.UploadInfo, error) {
	b.started <- key

	var (
		data []byte
		sent int64
	)

	buf := make([]byte, 4)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			data = append(data, buf[:n]...)
			sent += int64(n)
			onProgress(sent, size)
		}

		if b.hang && sent > 0 {
			<-ctx.Done()

			return minio.UploadInfo{}, ctx.Err()
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return minio.UploadInfo{}, err
		}
	}

	if b.failErr != nil {
		return minio.UploadInfo{}, b.failErr
	}

	b.mu.Lock()
	b.objects[key] = data
	b.mu.Unlock()

	return minio.UploadInfo{Key: key, Size: sent}, nil
}

func (b *fakeBlobs) Abort(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.aborted = append(b.aborted, key)
	delete(b.objects, key)

	return nil
}

func (b *fakeBlobs) Remove(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.removed = append(b.removed, key)
	delete(b.objects, key)

	return nil
}

func (b *fakeBlobs) DownloadURL(_ context.Context, key string) (string, error) {
	return "https://cdn.test/" + key, nil
}

func (b *fakeBlobs) Aborted() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]string(nil), b.aborted...)
}

// ephemeralSource 模拟请求结束后无法再次打开的源.
type ephemeralSource struct {
	*uploader.BytesSource
}

func (ephemeralSource) Retainable() bool { return false }

type env struct {
	store *store.Store
	rec   *storetest.Recorder
	blobs *fakeBlobs
	c     *uploader.Coordinator
}

func newEnv(t *testing.T, cfg configs.UploadConfig, quota int64) *env {
	t.Helper()

	s, rec, _ := storetest.Open(t, store.WithDefaultQuota(quota))
	blobs := newFakeBlobs()

	c, err := uploader.New(s, blobs, pipeline.NewQuotaGuard(s, nil, 0), cfg)
	require.NoError(t, err)

	return &env{store: s, rec: rec, blobs: blobs, c: c}
}

func defaultConfig() configs.UploadConfig {
	return configs.UploadConfig{StallTimeout: 5 * time.Second, RetainedSources: 4}
}

func (e *env) waitStarted(t *testing.T) {
	t.Helper()

	select {
	case <-e.blobs.started:
	case <-time.After(5 * time.Second):
		t.Fatal("transfer never started")
	}
}

func TestInitiateCompletesToPending(t *testing.T) {
	e := newEnv(t, defaultConfig(), 1<<20)
	ctx := context.Background()

	tr, err := e.c.Initiate(ctx, "alice", uploader.NewBytesSource("beach.jpg", "image/jpeg", payload))
	require.NoError(t, err)

	got, err := tr.Wait(ctx)
	require.NoError(t, err)

	assert.Equal(t, tr.ID(), got.ID)
	assert.Equal(t, media.StatusPending, got.Status)
	assert.Equal(t, "media/alice/"+tr.ID()+"/beach.jpg", got.StoragePath)
	assert.Equal(t, "https://cdn.test/"+got.StoragePath, got.URL())
	assert.Equal(t, fmt.Sprintf("%016x", xxhash.Sum64(payload)), got.Checksum)
	assert.Equal(t, int64(len(payload)), got.SizeBytes)
	assert.Equal(t, payload, e.blobs.objects[got.StoragePath])

	// 完成后不再有本地状态
	_, live := e.c.Overlay().Get(tr.ID())
	assert.False(t, live)
	assert.False(t, e.c.Cancel(tr.ID()))

	changes := e.rec.Changes(t)
	require.Len(t, changes, 2)
	assert.Equal(t, media.StatusUploading, changes[0].After.Status)
	assert.Nil(t, changes[0].Before)
	assert.Equal(t, media.StatusPending, changes[1].After.Status)
	assert.NotEmpty(t, changes[1].After.DownloadURL)
}

func TestInitiateRejectsBeforeAnyWrite(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxSizeBytes = 100

	e := newEnv(t, cfg, 10)
	ctx := context.Background()

	_, err := e.c.Initiate(ctx, "alice", uploader.NewBytesSource("doc.pdf", "application/pdf", payload))
	assert.ErrorIs(t, err, uploader.ErrUnsupportedType)

	_, err = e.c.Initiate(ctx, "alice", uploader.NewBytesSource("big.mp4", "video/mp4", make([]byte, 101)))
	assert.ErrorIs(t, err, uploader.ErrTooLarge)

	// 默认配额 10 字节
	_, err = e.c.Initiate(ctx, "alice", uploader.NewBytesSource("a.mp3", "audio/mpeg", payload))
	assert.ErrorIs(t, err, pipeline.ErrQuotaExceeded)

	list, total, err := e.store.List(ctx, store.ListFilter{Owner: "alice"})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)
	assert.Empty(t, e.rec.Messages(queue.TopicMediaChanged))
	assert.Empty(t, e.blobs.started)
}

func TestCancelMarksCanceled(t *testing.T) {
	e := newEnv(t, defaultConfig(), 1<<20)
	e.blobs.hang = true
	ctx := context.Background()

	tr, err := e.c.Initiate(ctx, "alice", uploader.NewBytesSource("clip.mp4", "video/mp4", payload))
	require.NoError(t, err)
	e.waitStarted(t)

	require.Eventually(t, func() bool {
		entry, ok := e.c.Overlay().Get(tr.ID())
		return ok && entry.Progress == 33
	}, time.Second, 5*time.Millisecond)

	assert.True(t, e.c.Cancel(tr.ID()))

	_, err = tr.Wait(ctx)
	require.ErrorIs(t, err, uploader.ErrCanceled)

	got, err := e.store.Find(ctx, tr.ID())
	require.NoError(t, err)
	assert.Equal(t, media.StatusFailed, got.Status)
	assert.Equal(t, media.CodeCanceled, got.Err().Code)
	assert.Nil(t, got.DownloadURL)
	assert.Equal(t, []string{got.StoragePath}, e.blobs.Aborted())

	assert.False(t, e.c.Cancel(tr.ID()))
}

func TestCallerContextCancelsTransfer(t *testing.T) {
	e := newEnv(t, defaultConfig(), 1<<20)
	e.blobs.hang = true

	ctx, cancel := context.WithCancel(context.Background())

	tr, err := e.c.Initiate(ctx, "alice", uploader.NewBytesSource("clip.mp4", "video/mp4", payload))
	require.NoError(t, err)
	e.waitStarted(t)

	cancel()

	<-tr.Done()

	got, err := e.store.Find(context.Background(), tr.ID())
	require.NoError(t, err)
	assert.Equal(t, media.StatusFailed, got.Status)
	assert.Equal(t, media.CodeCanceled, got.Err().Code)
}

func TestStallTimeout(t *testing.T) {
	cfg := defaultConfig()
	cfg.StallTimeout = 50 * time.Millisecond

	e := newEnv(t, cfg, 1<<20)
	e.blobs.hang = true
	ctx := context.Background()

	tr, err := e.c.Initiate(ctx, "alice", uploader.NewBytesSource("clip.mp4", "video/mp4", payload))
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err = tr.Wait(waitCtx)
	require.ErrorIs(t, err, uploader.ErrStalled)

	got, err := e.store.Find(ctx, tr.ID())
	require.NoError(t, err)
	assert.Equal(t, media.StatusFailed, got.Status)
	assert.Equal(t, media.CodeStalled, got.Err().Code)
}

func TestStorageFailureAndRetry(t *testing.T) {
	e := newEnv(t, defaultConfig(), 1<<20)
	e.blobs.failErr = errors.New("connection reset")
	ctx := context.Background()

	tr, err := e.c.Initiate(ctx, "alice", uploader.NewBytesSource("beach.jpg", "image/jpeg", payload))
	require.NoError(t, err)

	_, err = tr.Wait(ctx)
	require.ErrorContains(t, err, "connection reset")

	failed, err := e.store.Find(ctx, tr.ID())
	require.NoError(t, err)
	assert.Equal(t, media.CodeStorage, failed.Err().Code)

	e.blobs.failErr = nil

	retry, err := e.c.Retry(ctx, "alice", tr.ID())
	require.NoError(t, err)
	assert.NotEqual(t, tr.ID(), retry.ID())

	got, err := retry.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, media.StatusPending, got.Status)
	assert.Equal(t, "beach.jpg", got.FileName)

	_, err = e.store.Find(ctx, tr.ID())
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Contains(t, e.blobs.removed, failed.StoragePath)
}

func TestRetryWithoutSource(t *testing.T) {
	e := newEnv(t, defaultConfig(), 1<<20)
	e.blobs.failErr = errors.New("boom")
	ctx := context.Background()

	src := ephemeralSource{uploader.NewBytesSource("beach.jpg", "image/jpeg", payload)}

	tr, err := e.c.Initiate(ctx, "alice", src)
	require.NoError(t, err)

	_, err = tr.Wait(ctx)
	require.Error(t, err)

	_, err = e.c.Retry(ctx, "alice", tr.ID())
	require.ErrorIs(t, err, uploader.ErrSourceLost)

	// 记录被删除，需要重新选择文件
	_, err = e.store.Find(ctx, tr.ID())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRetryRejectsNonFailed(t *testing.T) {
	e := newEnv(t, defaultConfig(), 1<<20)
	ctx := context.Background()

	tr, err := e.c.Initiate(ctx, "alice", uploader.NewBytesSource("beach.jpg", "image/jpeg", payload))
	require.NoError(t, err)
	_, err = tr.Wait(ctx)
	require.NoError(t, err)

	_, err = e.c.Retry(ctx, "alice", tr.ID())
	assert.ErrorIs(t, err, uploader.ErrNotRetryable)

	_, err = e.c.Retry(ctx, "bob", tr.ID())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRetryKeepsAnalysisFailures(t *testing.T) {
	for _, code := range []media.ErrorCode{media.CodeTimeout, media.CodeAnalysisFailed, media.CodeMissingURL} {
		t.Run(string(code), func(t *testing.T) {
			e := newEnv(t, defaultConfig(), 1<<20)
			ctx := context.Background()

			tr, err := e.c.Initiate(ctx, "alice", uploader.NewBytesSource("beach.jpg", "image/jpeg", payload))
			require.NoError(t, err)

			uploaded, err := tr.Wait(ctx)
			require.NoError(t, err)

			_, err = e.store.Transition(ctx, tr.ID(), store.Guard{From: []media.Status{media.StatusPending}},
				media.StatusFailed, store.Failure(code, "analysis did not finish", e.store.Now()))
			require.NoError(t, err)

			_, err = e.c.Retry(ctx, "alice", tr.ID())
			require.ErrorIs(t, err, uploader.ErrNotRetryable)

			got, err := e.store.Find(ctx, tr.ID())
			require.NoError(t, err)
			assert.Equal(t, media.StatusFailed, got.Status)
			assert.Equal(t, uploaded.DownloadURL, got.DownloadURL)

			e.blobs.mu.Lock()
			defer e.blobs.mu.Unlock()

			assert.Contains(t, e.blobs.objects, uploaded.StoragePath)
			assert.Empty(t, e.blobs.removed)
		})
	}
}

func TestOverlayViewShadowsRecord(t *testing.T) {
	e := newEnv(t, defaultConfig(), 1<<20)
	e.blobs.hang = true
	ctx := context.Background()

	tr, err := e.c.Initiate(ctx, "alice", uploader.NewBytesSource("clip.mp4", "video/mp4", payload))
	require.NoError(t, err)
	e.waitStarted(t)

	require.Eventually(t, func() bool {
		entry, ok := e.c.Overlay().Get(tr.ID())
		return ok && entry.Progress > 0
	}, time.Second, 5*time.Millisecond)

	rec, err := e.store.Find(ctx, tr.ID())
	require.NoError(t, err)

	v := e.c.Overlay().View(rec)
	assert.True(t, v.Live)
	assert.Equal(t, 33, v.Record.Progress)
	assert.Zero(t, rec.Progress, "durable record is not modified")

	stored, err := e.store.Find(ctx, tr.ID())
	require.NoError(t, err)
	assert.Zero(t, stored.Progress)

	require.NoError(t, e.c.Shutdown(ctx))

	rec, err = e.store.Find(ctx, tr.ID())
	require.NoError(t, err)

	v = e.c.Overlay().View(rec)
	assert.False(t, v.Live)
	assert.Equal(t, media.StatusFailed, v.Record.Status)
	assert.Equal(t, 100, v.Record.Progress)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "media/a@b.c/01J/photo.jpg", uploader.ObjectKey("a@b.c", "01J", "photo.jpg"))
	assert.Equal(t, "media/u/01J/.._x.jpg", uploader.ObjectKey("u", "01J", "../x.jpg"))
	assert.Equal(t, "media/u/01J/file", uploader.ObjectKey("u", "01J", " "))

	// owner 与 id 同样不能跳出 media/{owner}
	assert.Equal(t, "media/.._.._etc/01J/x.jpg", uploader.ObjectKey("../../etc", "01J", "x.jpg"))
	assert.Equal(t, "media/_/01J/x.jpg", uploader.ObjectKey("..", "01J", "x.jpg"))
	assert.Equal(t, "media/u/.._v/x.jpg", uploader.ObjectKey("u", "../v", "x.jpg"))
}

func TestFileSourceSniffsType(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "pixel")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	require.NoError(t, os.WriteFile(p, png, 0o600))

	src, err := uploader.NewFileSource(p, "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", src.MimeType())
	assert.Equal(t, int64(len(png)), src.Size())
	assert.Equal(t, "pixel", src.Name())

	src, err = uploader.NewFileSource(p, "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", src.MimeType())

	_, err = uploader.NewFileSource(dir, "")
	assert.Error(t, err)
}
