package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/jobs"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/model"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store/storetest"
)

func TestPruneLedgerHonoursRetention(t *testing.T) {
	ctx := context.Background()
	s, _, clock := storetest.Open(t)

	_, applied, err := s.ApplyUsageDelta(ctx, "evt-old", "alice", "r1", 100)
	require.NoError(t, err)
	require.True(t, applied)

	clock.Advance(8 * 24 * time.Hour)

	_, applied, err = s.ApplyUsageDelta(ctx, "evt-new", "alice", "r2", 50)
	require.NoError(t, err)
	require.True(t, applied)

	require.NoError(t, jobs.PruneLedger(ctx, s, configs.PipelineConfig{LedgerRetention: 7 * 24 * time.Hour}))

	// 旧事件已被清理，再次投递会重新生效；新事件仍被去重
	_, applied, err = s.ApplyUsageDelta(ctx, "evt-new", "alice", "r2", 50)
	require.NoError(t, err)
	assert.False(t, applied)

	_, applied, err = s.ApplyUsageDelta(ctx, "evt-old", "alice", "r1", 100)
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestAuditQuotaReportsDrift(t *testing.T) {
	ctx := context.Background()
	s, _, _ := storetest.Open(t)

	_, err := s.EnsureProfile(ctx, "bob", "")
	require.NoError(t, err)

	require.NoError(t, s.Create(ctx, &model.MediaRecord{
		OwnerID:     "bob",
		FileName:    "clip.mp4",
		StoragePath: "media/bob/clip.mp4",
		MimeType:    "video/mp4",
		SizeBytes:   4096,
		Status:      media.StatusPending,
	}))

	drift, err := jobs.AuditQuota(ctx, s)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, "bob", drift[0].OwnerID)
	assert.EqualValues(t, -4096, drift[0].Diff())

	_, err = s.Recount(ctx, "bob")
	require.NoError(t, err)

	drift, err = jobs.AuditQuota(ctx, s)
	require.NoError(t, err)
	assert.Empty(t, drift)
}
