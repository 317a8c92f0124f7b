package pipeline_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/cache"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/analyzer"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/model"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/pipeline"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage/kv"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store/storetest"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/queue"
)

const mb = 1 << 20

type fakeAnalyzer struct {
	mu    sync.Mutex
	calls int
	reqs  []analyzer.Request
	fn    func(analyzer.Request) (*analyzer.Result, error)
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req analyzer.Request) (*analyzer.Result, error) {
	f.mu.Lock()
	f.calls++
	f.reqs = append(f.reqs, req)
	fn := f.fn
	f.mu.Unlock()

	if fn != nil {
		return fn(req)
	}

	return &analyzer.Result{
		Caption:    "Two friends on a beach at sunset",
		Tags:       []string{"Beach", "sunset", "beach", "#Friends"},
		Moderation: analyzer.Moderation{Verdict: "safe"},
		Entities:   analyzer.Entities{People: []string{"Ada"}, Location: "Lisbon"},
	}, nil
}

func (f *fakeAnalyzer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

type env struct {
	store *store.Store
	rec   *storetest.Recorder
	clock *storetest.Clock
	ai    *fakeAnalyzer
	p     *pipeline.Pipeline
}

func newEnv(t *testing.T, cfg configs.PipelineConfig) *env {
	t.Helper()

	s, rec, clock := storetest.Open(t, store.WithDefaultQuota(10*mb))

	mem, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	ai := &fakeAnalyzer{}
	p := pipeline.New(pipeline.Deps{
		Store:     s,
		Analyzer:  ai,
		Cache:     cache.NewCache(mem, cache.WithNamespace("profile")),
		Publisher: rec,
		Pipeline:  cfg,
		Quota:     configs.QuotaConfig{DefaultBytes: 10 * mb, ProfileCacheTTL: time.Minute},
	})

	return &env{store: s, rec: rec, clock: clock, ai: ai, p: p}
}

func defaultConfig() configs.PipelineConfig {
	return configs.PipelineConfig{
		StaleAfter:       5 * time.Minute,
		SweepBatch:       100,
		SweepConcurrency: 4,
		ContextWindow:    50,
		AnalyzeTimeout:   10 * time.Second,
	}
}

// pending 创建一条已完成传输的记录并返回进入 pending 的变更.
func (e *env) pending(t *testing.T, owner, url string) queue.MediaChangedPayload {
	t.Helper()

	ctx := context.Background()
	r := &model.MediaRecord{
		OwnerID:     owner,
		FileName:    "beach.jpg",
		StoragePath: "media/" + owner + "/beach.jpg",
		MimeType:    "image/jpeg",
		SizeBytes:   1024,
	}
	require.NoError(t, e.store.Create(ctx, r))

	fields := store.Fields{"progress": 100}
	if url != "" {
		fields = store.Uploaded(url, "abc", 1024)
	}

	_, err := e.store.Transition(ctx, r.ID, store.Guard{From: []media.Status{media.StatusUploading}},
		media.StatusPending, fields)
	require.NoError(t, err)

	changes := e.rec.Changes(t)
	last := changes[len(changes)-1]
	require.NotNil(t, last.After)
	require.Equal(t, media.StatusPending, last.After.Status)

	return last
}

func (e *env) get(t *testing.T, id string) *model.MediaRecord {
	t.Helper()

	r, err := e.store.Find(context.Background(), id)
	require.NoError(t, err)

	return r
}

func TestTriggerAnalyzesPendingRecord(t *testing.T) {
	e := newEnv(t, defaultConfig())
	ctx := context.Background()

	change := e.pending(t, "alice", "https://cdn.example/a.jpg")
	require.NoError(t, e.p.Trigger.Process(ctx, change))

	got := e.get(t, change.RecordID)
	assert.Equal(t, media.StatusReady, got.Status)
	assert.Equal(t, []string{"beach", "sunset", "friends"}, []string(got.Analysis.Tags))
	assert.Equal(t, media.VerdictSafe, got.Analysis.Verdict)
	assert.Equal(t, "Lisbon", got.Analysis.Location)
	assert.False(t, got.Analysis.IsUserEdited)
	assert.NotNil(t, got.AnalyzedAt)
	assert.Nil(t, got.Err())

	require.Equal(t, 1, e.ai.Calls())
	assert.Equal(t, "https://cdn.example/a.jpg", e.ai.reqs[0].DownloadURL)
	assert.Equal(t, "image/jpeg", e.ai.reqs[0].MimeType)

	// uploading -> pending -> processing -> ready
	var statuses []media.Status
	for _, c := range e.rec.Changes(t) {
		statuses = append(statuses, c.After.Status)
	}

	assert.Equal(t, []media.Status{
		media.StatusUploading, media.StatusPending, media.StatusProcessing, media.StatusReady,
	}, statuses)
}

func TestTriggerIsIdempotent(t *testing.T) {
	e := newEnv(t, defaultConfig())
	ctx := context.Background()

	change := e.pending(t, "alice", "https://cdn.example/a.jpg")

	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			assert.NoError(t, e.p.Trigger.Process(ctx, change))
		}()
	}

	wg.Wait()
	require.NoError(t, e.p.Trigger.Process(ctx, change))

	assert.Equal(t, 1, e.ai.Calls())
	assert.Equal(t, media.StatusReady, e.get(t, change.RecordID).Status)
}

func TestTriggerIgnoresOtherChanges(t *testing.T) {
	e := newEnv(t, defaultConfig())
	ctx := context.Background()

	change := e.pending(t, "alice", "https://cdn.example/a.jpg")
	require.NoError(t, e.p.Trigger.Process(ctx, change))

	for _, c := range e.rec.Changes(t) {
		if c.After.Status == media.StatusPending {
			continue
		}

		require.NoError(t, e.p.Trigger.Process(ctx, c))
	}

	deleted := queue.MediaChangedPayload{RecordID: change.RecordID, OwnerID: "alice", Before: change.After}
	require.NoError(t, e.p.Trigger.Process(ctx, deleted))

	assert.Equal(t, 1, e.ai.Calls())
}

func TestTriggerHandleDropsGarbage(t *testing.T) {
	e := newEnv(t, defaultConfig())

	msg, err := queue.NewWatermillMessage(queue.TopicMediaChanged, "not a payload")
	require.NoError(t, err)

	assert.NoError(t, e.p.Trigger.Handle(msg))
	assert.Zero(t, e.ai.Calls())
}

func TestTriggerMissingURL(t *testing.T) {
	e := newEnv(t, defaultConfig())

	change := e.pending(t, "alice", "")
	require.NoError(t, e.p.Trigger.Process(context.Background(), change))

	got := e.get(t, change.RecordID)
	assert.Equal(t, media.StatusFailed, got.Status)
	require.NotNil(t, got.Err())
	assert.Equal(t, media.CodeMissingURL, got.Err().Code)
	assert.Zero(t, e.ai.Calls())
}

func TestTriggerRecordsAnalyzerFailure(t *testing.T) {
	e := newEnv(t, defaultConfig())
	e.ai.fn = func(analyzer.Request) (*analyzer.Result, error) {
		return nil, &analyzer.StatusError{Code: http.StatusTooManyRequests, Body: "quota"}
	}

	change := e.pending(t, "alice", "https://cdn.example/a.jpg")
	require.NoError(t, e.p.Trigger.Process(context.Background(), change))

	got := e.get(t, change.RecordID)
	assert.Equal(t, media.StatusFailed, got.Status)
	require.NotNil(t, got.Err())
	assert.Equal(t, media.CodeAnalysisFailed, got.Err().Code)
	assert.Contains(t, got.Err().Message, "rate limited")
	assert.False(t, got.HasAnalysis())
}

func TestTriggerRejectsEmptyTags(t *testing.T) {
	e := newEnv(t, defaultConfig())
	e.ai.fn = func(analyzer.Request) (*analyzer.Result, error) {
		return &analyzer.Result{Caption: "x", Tags: []string{" ", "#"}, Moderation: analyzer.Moderation{Verdict: "SAFE"}}, nil
	}

	change := e.pending(t, "alice", "https://cdn.example/a.jpg")
	require.NoError(t, e.p.Trigger.Process(context.Background(), change))

	got := e.get(t, change.RecordID)
	assert.Equal(t, media.StatusFailed, got.Status)
	assert.Contains(t, got.Err().Message, "no usable tags")
}

func TestTriggerRecoversPanic(t *testing.T) {
	e := newEnv(t, defaultConfig())
	e.ai.fn = func(analyzer.Request) (*analyzer.Result, error) {
		panic("boom")
	}

	change := e.pending(t, "alice", "https://cdn.example/a.jpg")
	require.NotPanics(t, func() {
		require.NoError(t, e.p.Trigger.Process(context.Background(), change))
	})

	got := e.get(t, change.RecordID)
	assert.Equal(t, media.StatusFailed, got.Status)
	assert.Contains(t, got.Err().Message, "boom")
}

func TestTriggerPassesKnownPeople(t *testing.T) {
	e := newEnv(t, defaultConfig())
	ctx := context.Background()

	first := e.pending(t, "alice", "https://cdn.example/a.jpg")
	require.NoError(t, e.p.Trigger.Process(ctx, first))

	e.clock.Advance(time.Second)

	second := e.pending(t, "alice", "https://cdn.example/b.jpg")
	require.NoError(t, e.p.Trigger.Process(ctx, second))

	require.Equal(t, 2, e.ai.Calls())
	assert.Empty(t, e.ai.reqs[0].KnownPeople)
	assert.Equal(t, []string{"Ada"}, e.ai.reqs[1].KnownPeople)
}

func TestUserEditsSurviveAutomaticAnalysis(t *testing.T) {
	e := newEnv(t, defaultConfig())
	ctx := context.Background()

	change := e.pending(t, "alice", "https://cdn.example/a.jpg")

	_, err := e.store.Update(ctx, "alice", change.RecordID, store.AnalysisEdit([]string{"Family"}, []string{"Grace"}, ""))
	require.NoError(t, err)

	require.NoError(t, e.p.Trigger.Process(ctx, change))

	got := e.get(t, change.RecordID)
	assert.Equal(t, media.StatusReady, got.Status)
	assert.Equal(t, []string{"family"}, []string(got.Analysis.Tags))
	assert.Equal(t, []string{"Grace"}, []string(got.Analysis.People))
	assert.True(t, got.Analysis.IsUserEdited)
	// 非人工字段仍由模型写入
	assert.Equal(t, "Two friends on a beach at sunset", got.Analysis.Description)
}

func TestReanalyzeOverwritesUserEdits(t *testing.T) {
	e := newEnv(t, defaultConfig())
	ctx := context.Background()

	change := e.pending(t, "alice", "https://cdn.example/a.jpg")
	require.NoError(t, e.p.Trigger.Process(ctx, change))

	_, err := e.store.Update(ctx, "alice", change.RecordID, store.AnalysisEdit([]string{"mine"}, nil, ""))
	require.NoError(t, err)

	got, err := e.p.Reanalyzer.Reanalyze(ctx, "alice", change.RecordID)
	require.NoError(t, err)

	assert.Equal(t, media.StatusReady, got.Status)
	assert.Equal(t, []string{"beach", "sunset", "friends"}, []string(got.Analysis.Tags))
	assert.False(t, got.Analysis.IsUserEdited)
	assert.Equal(t, 2, e.ai.Calls())
}

func TestReanalyzeFromFailed(t *testing.T) {
	e := newEnv(t, defaultConfig())
	ctx := context.Background()

	e.ai.fn = func(analyzer.Request) (*analyzer.Result, error) { return nil, errors.New("upstream down") }

	change := e.pending(t, "alice", "https://cdn.example/a.jpg")
	require.NoError(t, e.p.Trigger.Process(ctx, change))
	require.Equal(t, media.StatusFailed, e.get(t, change.RecordID).Status)

	// 手动路径把失败原样返回
	_, err := e.p.Reanalyzer.Reanalyze(ctx, "alice", change.RecordID)
	require.ErrorContains(t, err, "upstream down")
	assert.Equal(t, media.StatusFailed, e.get(t, change.RecordID).Status)

	e.ai.fn = nil

	got, err := e.p.Reanalyzer.Reanalyze(ctx, "alice", change.RecordID)
	require.NoError(t, err)
	assert.Equal(t, media.StatusReady, got.Status)
	assert.Nil(t, got.Err())
}

func TestReanalyzeErrors(t *testing.T) {
	e := newEnv(t, defaultConfig())
	ctx := context.Background()

	change := e.pending(t, "alice", "https://cdn.example/a.jpg")

	_, err := e.p.Reanalyzer.Reanalyze(ctx, "bob", change.RecordID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = e.store.Transition(ctx, change.RecordID, store.Guard{From: []media.Status{media.StatusPending}},
		media.StatusProcessing, nil)
	require.NoError(t, err)

	_, err = e.p.Reanalyzer.Reanalyze(ctx, "alice", change.RecordID)
	assert.ErrorIs(t, err, pipeline.ErrAlreadyProcessing)

	uploading := &model.MediaRecord{OwnerID: "alice", MimeType: "image/png", StoragePath: "media/alice/u.png"}
	require.NoError(t, e.store.Create(ctx, uploading))

	_, err = e.p.Reanalyzer.Reanalyze(ctx, "alice", uploading.ID)
	assert.ErrorIs(t, err, pipeline.ErrMissingURL)

	noURL := e.pending(t, "alice", "")
	_, err = e.p.Reanalyzer.Reanalyze(ctx, "alice", noURL.RecordID)
	assert.ErrorIs(t, err, pipeline.ErrMissingURL)

	assert.Zero(t, e.ai.Calls())
}

func TestReanalyzeAsAdmin(t *testing.T) {
	e := newEnv(t, defaultConfig())
	ctx := context.Background()

	change := e.pending(t, "alice", "https://cdn.example/a.jpg")

	got, err := e.p.Reanalyzer.Reanalyze(ctx, "", change.RecordID)
	require.NoError(t, err)
	assert.Equal(t, media.StatusReady, got.Status)
	assert.Equal(t, "alice", got.OwnerID)
}

// stuck 把一条记录推进到 processing 并停在那里.
func (e *env) stuck(t *testing.T, owner string) string {
	t.Helper()

	change := e.pending(t, owner, "https://cdn.example/x.jpg")
	_, err := e.store.Transition(context.Background(), change.RecordID,
		store.Guard{From: []media.Status{media.StatusPending}}, media.StatusProcessing, nil)
	require.NoError(t, err)

	return change.RecordID
}

func TestWatchdogReclaimsStaleRecords(t *testing.T) {
	e := newEnv(t, defaultConfig())
	ctx := context.Background()

	old := e.stuck(t, "alice")
	e.clock.Advance(2 * time.Minute)

	fresh := e.stuck(t, "alice")
	waiting := e.pending(t, "bob", "https://cdn.example/b.jpg").RecordID
	e.clock.Advance(4 * time.Minute)

	// old 已卡 6 分钟，fresh 与 waiting 只有 4 分钟
	res, err := e.p.Watchdog.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, pipeline.SweepResult{Scanned: 1, Reclaimed: 1}, res)

	got := e.get(t, old)
	assert.Equal(t, media.StatusFailed, got.Status)
	require.NotNil(t, got.Err())
	assert.Equal(t, media.CodeTimeout, got.Err().Code)
	assert.Contains(t, got.Err().Message, "re-trigger")

	assert.Equal(t, media.StatusProcessing, e.get(t, fresh).Status)
	assert.Equal(t, media.StatusPending, e.get(t, waiting).Status)

	e.clock.Advance(2 * time.Minute)

	res, err = e.p.Watchdog.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Reclaimed)
	assert.Equal(t, media.StatusFailed, e.get(t, waiting).Status)
}

func TestWatchdogSweepIsIdempotent(t *testing.T) {
	e := newEnv(t, defaultConfig())
	ctx := context.Background()

	id := e.stuck(t, "alice")
	e.clock.Advance(10 * time.Minute)

	res, err := e.p.Watchdog.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Reclaimed)

	before := e.get(t, id)

	res, err = e.p.Watchdog.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, pipeline.SweepResult{}, res)

	after := e.get(t, id)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
	assert.Equal(t, before.ErrorAt, after.ErrorAt)
}

func TestWatchdogBatches(t *testing.T) {
	cfg := defaultConfig()
	cfg.SweepBatch = 2
	cfg.SweepConcurrency = 2

	e := newEnv(t, cfg)

	for i := 0; i < 5; i++ {
		e.stuck(t, "alice")
	}

	e.clock.Advance(6 * time.Minute)

	res, err := e.p.Watchdog.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, res.Scanned)
	assert.Equal(t, 5, res.Reclaimed)

	list, _, err := e.store.List(context.Background(), store.ListFilter{Owner: "alice", Status: media.StatusFailed})
	require.NoError(t, err)
	assert.Len(t, list, 5)
}

func TestWatchdogReclaimsAbandonedUploads(t *testing.T) {
	cfg := defaultConfig()
	cfg.AbandonedUploadAfter = time.Hour

	e := newEnv(t, cfg)
	ctx := context.Background()

	r := &model.MediaRecord{OwnerID: "alice", MimeType: "video/mp4", StoragePath: "media/alice/v.mp4"}
	require.NoError(t, e.store.Create(ctx, r))

	e.clock.Advance(30 * time.Minute)

	res, err := e.p.Watchdog.ReclaimAbandoned(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Reclaimed)

	e.clock.Advance(31 * time.Minute)

	res, err = e.p.Watchdog.ReclaimAbandoned(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Reclaimed)

	got := e.get(t, r.ID)
	assert.Equal(t, media.StatusFailed, got.Status)
	assert.Equal(t, media.CodeStorage, got.Err().Code)
}

func TestSizeDelta(t *testing.T) {
	snap := func(size int64) *queue.RecordSnapshot { return &queue.RecordSnapshot{SizeBytes: size} }

	cases := []struct {
		name          string
		before, after *queue.RecordSnapshot
		want          int64
	}{
		{"created", nil, snap(5), 5},
		{"deleted", snap(5), nil, -5},
		{"grown", snap(5), snap(8), 3},
		{"shrunk", snap(8), snap(5), -3},
		{"unchanged", snap(5), snap(5), 0},
		{"nothing", nil, nil, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, pipeline.SizeDelta(c.before, c.after))
		})
	}
}

func TestLedgerKeyIsStable(t *testing.T) {
	p := queue.MediaChangedPayload{RecordID: "r1", After: &queue.RecordSnapshot{SizeBytes: 9}}
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, pipeline.LedgerKey(p, at), pipeline.LedgerKey(p, at))
	assert.NotEqual(t, pipeline.LedgerKey(p, at), pipeline.LedgerKey(p, at.Add(time.Nanosecond)))
	assert.Regexp(t, `^xx-[0-9a-f]{16}$`, pipeline.LedgerKey(p, at))
}

// envelopes 解析已发布的 sm.media.changed 信封.
func envelopes(t *testing.T, rec *storetest.Recorder) []queue.Message[queue.MediaChangedPayload] {
	t.Helper()

	var out []queue.Message[queue.MediaChangedPayload]

	for _, m := range rec.Messages(queue.TopicMediaChanged) {
		env, err := queue.ParseMediaChanged(m)
		require.NoError(t, err)

		out = append(out, env)
	}

	return out
}

func TestQuotaScenario(t *testing.T) {
	e := newEnv(t, defaultConfig())
	ctx := context.Background()
	guard := e.p.Guard

	// 10MB 配额，先确认空档案可以放下 6MB
	require.NoError(t, guard.Check(ctx, "alice", 6*mb))

	r := &model.MediaRecord{OwnerID: "alice", MimeType: "image/jpeg", StoragePath: "media/alice/big.jpg", SizeBytes: 5 * mb}
	require.NoError(t, e.store.Create(ctx, r))

	for _, env := range envelopes(t, e.rec) {
		require.NoError(t, e.p.Reconciler.Apply(ctx, env))
	}

	p, err := guard.Profile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(5*mb), p.UsedBytes)
	assert.Equal(t, int64(10*mb), p.QuotaBytes)

	err = guard.Check(ctx, "alice", 6*mb)
	require.ErrorIs(t, err, pipeline.ErrQuotaExceeded)
	assert.Contains(t, err.Error(), "5242880 remaining")

	assert.NoError(t, guard.Check(ctx, "alice", 5*mb))

	quota := e.rec.Messages(queue.TopicQuotaChanged)
	require.Len(t, quota, 1)

	qc, err := queue.ParseQuotaChanged(quota[0])
	require.NoError(t, err)
	assert.Equal(t, int64(5*mb), qc.Payload.Delta)
	assert.Equal(t, int64(5*mb), qc.Payload.UsedBytes)
}

func TestReconcilerIgnoresDuplicates(t *testing.T) {
	e := newEnv(t, defaultConfig())
	ctx := context.Background()

	r := &model.MediaRecord{OwnerID: "alice", MimeType: "image/jpeg", StoragePath: "media/alice/a.jpg", SizeBytes: 3 * mb}
	require.NoError(t, e.store.Create(ctx, r))

	envs := envelopes(t, e.rec)
	require.Len(t, envs, 1)

	for i := 0; i < 3; i++ {
		require.NoError(t, e.p.Reconciler.Apply(ctx, envs[0]))
	}

	p, err := e.store.Profile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(3*mb), p.UsedBytes)
	assert.Len(t, e.rec.Messages(queue.TopicQuotaChanged), 1)
}

func TestReconcilerFollowsLifecycle(t *testing.T) {
	e := newEnv(t, defaultConfig())
	ctx := context.Background()

	change := e.pending(t, "alice", "https://cdn.example/a.jpg")
	require.NoError(t, e.p.Trigger.Process(ctx, change))

	_, err := e.store.Delete(ctx, "alice", change.RecordID)
	require.NoError(t, err)

	// 乱序投递不影响最终结果
	envs := envelopes(t, e.rec)
	for i := len(envs) - 1; i >= 0; i-- {
		require.NoError(t, e.p.Reconciler.Apply(ctx, envs[i]))
	}

	p, err := e.store.Profile(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, p.UsedBytes)

	sum, err := e.store.SumUsage(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, sum)
}

func TestReconcilerHandleDecodesMessages(t *testing.T) {
	e := newEnv(t, defaultConfig())
	ctx := context.Background()

	r := &model.MediaRecord{OwnerID: "carol", MimeType: "audio/mpeg", StoragePath: "media/carol/a.mp3", SizeBytes: 2048}
	require.NoError(t, e.store.Create(ctx, r))

	msgs := e.rec.Messages(queue.TopicMediaChanged)
	require.Len(t, msgs, 1)
	require.NoError(t, e.p.Reconciler.Handle(msgs[0]))
	require.NoError(t, e.p.Reconciler.Handle(msgs[0]))

	p, err := e.store.Profile(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, int64(2048), p.UsedBytes)
}
