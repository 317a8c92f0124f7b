package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/scheduler"
)

func newScheduler(t *testing.T) *scheduler.Scheduler {
	t.Helper()

	s, err := scheduler.NewScheduler()
	require.NoError(t, err)
	s.Start()

	t.Cleanup(func() { _ = s.Stop() })

	return s
}

func TestRunNowRecordsSuccess(t *testing.T) {
	s := newScheduler(t)

	var calls atomic.Int32

	require.NoError(t, s.AddInterval(context.Background(), "sweep", time.Hour, func(context.Context) error {
		calls.Add(1)
		return nil
	}))

	require.NoError(t, s.RunNow("sweep"))

	require.Eventually(t, func() bool {
		info, err := s.GetJobInfoByName("sweep")
		return err == nil && info.Runs == 1
	}, 2*time.Second, 10*time.Millisecond)

	info, err := s.GetJobInfoByName("sweep")
	require.NoError(t, err)
	assert.Equal(t, scheduler.StatusScheduled, info.Status)
	assert.False(t, info.LastSuccess.IsZero())
	assert.Equal(t, "every 1h0m0s", info.Schedule)
	assert.EqualValues(t, 1, calls.Load())
}

func TestJobErrorAndPanicAreRecorded(t *testing.T) {
	s := newScheduler(t)

	require.NoError(t, s.AddCron(context.Background(), "audit", "10 4 * * *", func(context.Context) error {
		return errors.New("drift query failed")
	}))
	require.NoError(t, s.AddInterval(context.Background(), "boom", time.Hour, func(context.Context) error {
		panic("nil map")
	}))

	require.NoError(t, s.RunNow("audit"))
	require.NoError(t, s.RunNow("boom"))

	require.Eventually(t, func() bool {
		a, _ := s.GetJobInfoByName("audit")
		b, _ := s.GetJobInfoByName("boom")

		return a.Runs == 1 && b.Runs == 1
	}, 2*time.Second, 10*time.Millisecond)

	a, _ := s.GetJobInfoByName("audit")
	assert.Equal(t, scheduler.StatusError, a.Status)
	assert.Equal(t, "drift query failed", a.Error)
	assert.True(t, a.LastSuccess.IsZero())

	b, _ := s.GetJobInfoByName("boom")
	assert.Equal(t, scheduler.StatusError, b.Status)
	assert.Contains(t, b.Error, "nil map")
}

func TestDuplicateAndUnknownJobs(t *testing.T) {
	s := newScheduler(t)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.AddInterval(context.Background(), "prune", time.Hour, noop))
	assert.Error(t, s.AddInterval(context.Background(), "prune", time.Minute, noop))
	assert.Error(t, s.AddInterval(context.Background(), "zero", 0, noop))
	assert.Error(t, s.RunNow("missing"))

	require.Len(t, s.GetJobInfos(), 1)
	require.NoError(t, s.RemoveJobByName("prune"))
	assert.Empty(t, s.GetJobInfos())
	assert.Error(t, s.RemoveJobByName("prune"))
}

func TestRemoveJobByID(t *testing.T) {
	s := newScheduler(t)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.AddInterval(context.Background(), "ledger-prune", time.Hour, noop))
	require.NoError(t, s.AddInterval(context.Background(), "abandoned", time.Hour, noop))

	infos := s.GetJobInfos()
	require.Len(t, infos, 2)
	assert.Equal(t, "abandoned", infos[0].Name)
	assert.False(t, infos[0].NextRun.IsZero())

	id, err := uuid.Parse(infos[1].ID)
	require.NoError(t, err)
	require.NoError(t, s.RemoveJob(id))

	_, err = s.GetJobInfoByName("ledger-prune")
	assert.ErrorIs(t, err, scheduler.ErrJobNotFound)
	assert.ErrorIs(t, s.RemoveJob(uuid.New()), scheduler.ErrJobNotFound)
}
