package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/model"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store/storetest"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/queue"
)

func newRecord(owner string, size int64) *model.MediaRecord {
	return &model.MediaRecord{
		OwnerID:     owner,
		FileName:    "beach.jpg",
		StoragePath: "media/" + owner + "/x/beach.jpg",
		MimeType:    "image/jpeg",
		SizeBytes:   size,
	}
}

func TestCreatePublishesCreation(t *testing.T) {
	s, rec, _ := storetest.Open(t)
	ctx := context.Background()

	r := newRecord("alice", 10)
	require.NoError(t, s.Create(ctx, r))

	assert.Len(t, r.ID, 26)
	assert.Equal(t, media.StatusUploading, r.Status)
	assert.Nil(t, r.DownloadURL)

	changes := rec.Changes(t)
	require.Len(t, changes, 1)
	assert.Nil(t, changes[0].Before)
	require.NotNil(t, changes[0].After)
	assert.Equal(t, queue.ChangeCreated, changes[0].Kind())
	assert.Equal(t, int64(10), changes[0].After.SizeBytes)
}

func TestGetIsOwnerScoped(t *testing.T) {
	s, _, _ := storetest.Open(t)
	ctx := context.Background()

	r := newRecord("alice", 1)
	require.NoError(t, s.Create(ctx, r))

	_, err := s.Get(ctx, "bob", r.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.Get(ctx, "alice", r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)

	got, err = s.Find(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.OwnerID)
}

func TestTransitionCAS(t *testing.T) {
	s, rec, _ := storetest.Open(t)
	ctx := context.Background()

	r := newRecord("alice", 1)
	require.NoError(t, s.Create(ctx, r))

	up, err := s.Transition(ctx, r.ID, store.Guard{From: []media.Status{media.StatusUploading}},
		media.StatusPending, store.Uploaded("https://cdn/x", "abcd", 1))
	require.NoError(t, err)
	assert.Equal(t, media.StatusPending, up.Status)
	assert.Equal(t, "https://cdn/x", up.URL())

	// 第二次从 uploading 迁移必然失败
	_, err = s.Transition(ctx, r.ID, store.Guard{From: []media.Status{media.StatusUploading}},
		media.StatusPending, nil)
	assert.ErrorIs(t, err, store.ErrStateConflict)

	_, err = s.Transition(ctx, "missing", store.Guard{From: []media.Status{media.StatusPending}},
		media.StatusProcessing, nil)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Transition(ctx, r.ID, store.Guard{From: []media.Status{media.StatusPending}},
		media.StatusReady, nil)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	changes := rec.Changes(t)
	require.Len(t, changes, 2)
	assert.Equal(t, media.StatusUploading, changes[1].Before.Status)
	assert.Equal(t, media.StatusPending, changes[1].After.Status)
	assert.Equal(t, "https://cdn/x", changes[1].After.DownloadURL)
}

func TestTransitionConcurrentSingleWinner(t *testing.T) {
	s, _, _ := storetest.Open(t)
	ctx := context.Background()

	r := newRecord("alice", 1)
	r.Status = media.StatusPending
	require.NoError(t, s.Create(ctx, r))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)

	for i := 0; i < 5; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := s.Transition(ctx, r.ID, store.Guard{From: []media.Status{media.StatusPending}},
				media.StatusProcessing, nil)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else if !errors.Is(err, store.ErrStateConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestTransitionUpdatedBeforeGuard(t *testing.T) {
	s, _, clock := storetest.Open(t)
	ctx := context.Background()

	r := newRecord("alice", 1)
	r.Status = media.StatusProcessing
	require.NoError(t, s.Create(ctx, r))

	guard := store.Guard{From: media.InFlight, UpdatedBefore: clock.Now().Add(-5 * time.Minute)}

	_, err := s.Transition(ctx, r.ID, guard, media.StatusFailed, store.Failure(media.CodeTimeout, "stuck", clock.Now()))
	assert.ErrorIs(t, err, store.ErrStateConflict)

	clock.Advance(6 * time.Minute)
	guard.UpdatedBefore = clock.Now().Add(-5 * time.Minute)

	got, err := s.Transition(ctx, r.ID, guard, media.StatusFailed, store.Failure(media.CodeTimeout, "stuck", clock.Now()))
	require.NoError(t, err)
	require.NotNil(t, got.Err())
	assert.Equal(t, media.CodeTimeout, got.Err().Code)
}

func TestListOrderAndFilter(t *testing.T) {
	s, _, clock := storetest.Open(t)
	ctx := context.Background()

	var ids []string

	for i := 0; i < 3; i++ {
		r := newRecord("alice", int64(i))
		require.NoError(t, s.Create(ctx, r))

		ids = append(ids, r.ID)

		clock.Advance(time.Second)
	}

	require.NoError(t, s.Create(ctx, newRecord("bob", 1)))

	list, total, err := s.List(ctx, store.ListFilter{Owner: "alice"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[0], list[2].ID)

	list, total, err = s.List(ctx, store.ListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, list, 2)

	_, total, err = s.List(ctx, store.ListFilter{Owner: "alice", Status: media.StatusReady})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestDeletePublishesDeletion(t *testing.T) {
	s, rec, _ := storetest.Open(t)
	ctx := context.Background()

	r := newRecord("alice", 7)
	require.NoError(t, s.Create(ctx, r))

	_, err := s.Delete(ctx, "bob", r.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Delete(ctx, "alice", r.ID)
	require.NoError(t, err)

	_, err = s.Find(ctx, r.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	changes := rec.Changes(t)
	require.Len(t, changes, 2)
	assert.Equal(t, queue.ChangeDeleted, changes[1].Kind())
	assert.Equal(t, int64(7), changes[1].Before.SizeBytes)
}

func analyzed(t *testing.T, s *store.Store, owner string, people ...string) *model.MediaRecord {
	t.Helper()

	ctx := context.Background()
	r := newRecord(owner, 1)
	r.Status = media.StatusProcessing
	require.NoError(t, s.Create(ctx, r))

	out, err := s.Transition(ctx, r.ID, store.Guard{From: []media.Status{media.StatusProcessing}}, media.StatusReady,
		store.AnalysisResult(model.Analysis{
			Description: "x",
			Tags:        []string{"beach"},
			People:      people,
			Verdict:     media.VerdictSafe,
		}, s.Now()))
	require.NoError(t, err)

	return out
}

func TestRecentPeople(t *testing.T) {
	s, _, clock := storetest.Open(t)
	ctx := context.Background()

	analyzed(t, s, "alice", "Maya", "Leo")
	clock.Advance(time.Second)
	analyzed(t, s, "alice", "maya", "Ana")
	analyzed(t, s, "bob", "Zed")

	// 未分析的记录不计入
	require.NoError(t, s.Create(ctx, newRecord("alice", 1)))

	people, err := s.RecentPeople(ctx, "alice", 50)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"maya", "Ana", "Leo"}, people)

	people, err = s.RecentPeople(ctx, "alice", 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"maya", "Ana"}, people)
}

func TestRenamePerson(t *testing.T) {
	s, _, _ := storetest.Open(t)
	ctx := context.Background()

	a := analyzed(t, s, "alice", "Person 1", "Leo")
	b := analyzed(t, s, "alice", "Leo")
	other := analyzed(t, s, "bob", "Person 1")

	n, err := s.RenamePerson(ctx, "alice", "person 1", "Maya")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.Find(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Maya", "Leo"}, []string(got.Analysis.People))
	assert.True(t, got.Analysis.IsUserEdited)

	got, err = s.Find(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, got.Analysis.IsUserEdited)

	got, err = s.Find(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Person 1"}, []string(got.Analysis.People))
}

func TestRenamePersonPublishesEachChange(t *testing.T) {
	s, rec, _ := storetest.Open(t)
	ctx := context.Background()

	a := analyzed(t, s, "alice", "Leo")
	b := analyzed(t, s, "alice", "leo", "Maya")
	analyzed(t, s, "alice", "Maya")
	rec.Reset()

	n, err := s.RenamePerson(ctx, "alice", "Leo", "Leon")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	changes := rec.Changes(t)
	require.Len(t, changes, 2)

	ids := []string{changes[0].RecordID, changes[1].RecordID}
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

	for _, c := range changes {
		assert.NotNil(t, c.Before)
		assert.NotNil(t, c.After)
	}
}

func TestRenamePersonIsAllOrNothing(t *testing.T) {
	db := storetest.OpenDB(t)
	rec := storetest.NewRecorder()
	s := store.New(db, rec)
	ctx := context.Background()

	a := analyzed(t, s, "alice", "Leo")
	b := analyzed(t, s, "alice", "Leo")
	rec.Reset()

	// 第二条记录写入失败
	var updates int
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail_second", func(tx *gorm.DB) {
		updates++
		if updates == 2 {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	_, err := s.RenamePerson(ctx, "alice", "Leo", "Leon")
	require.ErrorContains(t, err, "disk full")

	for _, id := range []string{a.ID, b.ID} {
		got, err := s.Find(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []string{"Leo"}, []string(got.Analysis.People))
		assert.False(t, got.Analysis.IsUserEdited)
	}

	assert.Empty(t, rec.Changes(t))
}

func TestStale(t *testing.T) {
	s, _, clock := storetest.Open(t)
	ctx := context.Background()

	old := newRecord("alice", 1)
	old.Status = media.StatusPending
	require.NoError(t, s.Create(ctx, old))

	clock.Advance(10 * time.Minute)

	fresh := newRecord("bob", 1)
	fresh.Status = media.StatusProcessing
	require.NoError(t, s.Create(ctx, fresh))

	got, err := s.Stale(ctx, media.InFlight, clock.Now().Add(-5*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, old.ID, got[0].ID)
}

func TestApplyUsageDeltaIdempotent(t *testing.T) {
	s, _, _ := storetest.Open(t, store.WithDefaultQuota(100))
	ctx := context.Background()

	p, applied, err := s.ApplyUsageDelta(ctx, "evt-1", "alice", "r1", 30)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, int64(30), p.UsedBytes)
	assert.Equal(t, int64(100), p.QuotaBytes)

	p, applied, err = s.ApplyUsageDelta(ctx, "evt-1", "alice", "r1", 30)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, int64(30), p.UsedBytes)

	p, _, err = s.ApplyUsageDelta(ctx, "evt-2", "alice", "r1", -30)
	require.NoError(t, err)
	assert.Zero(t, p.UsedBytes)
}

func TestUsageDeltasCommute(t *testing.T) {
	deltas := []int64{10, -4, 7, 3}
	orders := [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {1, 3, 0, 2}}

	for n, order := range orders {
		t.Run(fmt.Sprintf("order_%d", n), func(t *testing.T) {
			s, _, _ := storetest.Open(t)
			ctx := context.Background()

			var p *model.UserProfile

			for _, i := range order {
				var err error

				p, _, err = s.ApplyUsageDelta(ctx, fmt.Sprintf("evt-%d", i), "alice", "r", deltas[i])
				require.NoError(t, err)
			}

			assert.Equal(t, int64(16), p.UsedBytes)
		})
	}
}

func TestRecountAndDrift(t *testing.T) {
	s, _, clock := storetest.Open(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newRecord("alice", 40)))
	require.NoError(t, s.Create(ctx, newRecord("alice", 2)))

	_, _, err := s.ApplyUsageDelta(ctx, "evt-1", "alice", "r", 40)
	require.NoError(t, err)

	drift, err := s.UsageDrift(ctx)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, int64(-2), drift[0].Diff())

	p, err := s.Recount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.UsedBytes)

	drift, err = s.UsageDrift(ctx)
	require.NoError(t, err)
	assert.Empty(t, drift)

	clock.Advance(48 * time.Hour)

	n, err := s.PruneLedger(ctx, clock.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSetQuota(t *testing.T) {
	s, _, _ := storetest.Open(t)
	ctx := context.Background()

	p, err := s.SetQuota(ctx, "alice", 10<<20)
	require.NoError(t, err)
	assert.Equal(t, int64(10<<20), p.QuotaBytes)

	_, err = s.SetQuota(ctx, "alice", -1)
	assert.Error(t, err)

	p, err = s.EnsureProfile(ctx, "alice", media.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, media.RoleUser, p.Role)
}
