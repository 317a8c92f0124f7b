package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store"
	nlog "github.com/omgitsguppey/SmartMedia-CMS/pkg/log"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/metrics"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/queue"
)

// QuotaReconciler 根据记录变更的前后快照维护 used_bytes.
type QuotaReconciler struct {
	store  *store.Store
	guard  *QuotaGuard
	pub    message.Publisher
	logger zerolog.Logger
}

// NewQuotaReconciler 创建对账器. pub 为 nil 时不发布 sm.quota.changed.
func NewQuotaReconciler(s *store.Store, guard *QuotaGuard, pub message.Publisher) *QuotaReconciler {
	return &QuotaReconciler{store: s, guard: guard, pub: pub, logger: nlog.Component("reconciler")}
}

// SizeDelta 创建为 +size，删除为 -size，大小变化为新旧差值，其余为 0.
func SizeDelta(before, after *queue.RecordSnapshot) int64 {
	switch {
	case before == nil && after == nil:
		return 0
	case before == nil:
		return after.SizeBytes
	case after == nil:
		return -before.SizeBytes
	default:
		return after.SizeBytes - before.SizeBytes
	}
}

// LedgerKey 事件没有 ID 时的幂等键.
func LedgerKey(p queue.MediaChangedPayload, occurredAt time.Time) string {
	var before, after int64 = -1, -1
	if p.Before != nil {
		before = p.Before.SizeBytes
	}

	if p.After != nil {
		after = p.After.SizeBytes
	}

	sum := xxhash.Sum64String(fmt.Sprintf("%s|%d|%d|%d", p.RecordID, before, after, occurredAt.UnixNano()))

	return fmt.Sprintf("xx-%016x", sum)
}

// Handle 消息总线入口.
func (r *QuotaReconciler) Handle(msg *message.Message) error {
	env, err := queue.ParseMediaChanged(msg)
	if err != nil {
		r.logger.Warn().Err(err).Str("uuid", msg.UUID).Msg("drop undecodable media change")

		return nil
	}

	return r.Apply(msg.Context(), env)
}

// Apply 应用一次变更的配额增量. 同一事件重复投递不会重复计数.
func (r *QuotaReconciler) Apply(ctx context.Context, env queue.Message[queue.MediaChangedPayload]) error {
	p := env.Payload

	delta := SizeDelta(p.Before, p.After)
	if delta == 0 {
		return nil
	}

	eventID := env.Header.ID
	if eventID == "" {
		eventID = LedgerKey(p, env.Header.OccurredAt)
	}

	profile, applied, err := r.store.ApplyUsageDelta(ctx, eventID, p.OwnerID, p.RecordID, delta)
	if err != nil {
		metrics.QuotaDeltas.WithLabelValues("error").Inc()

		return fmt.Errorf("apply usage delta: %w", err)
	}

	if !applied {
		metrics.QuotaDeltas.WithLabelValues("duplicate").Inc()
		r.logger.Debug().Str("event_id", eventID).Msg("quota delta already applied")

		return nil
	}

	metrics.QuotaDeltas.WithLabelValues("applied").Inc()
	r.logger.Debug().Str("owner", p.OwnerID).Int64("delta", delta).Int64("used", profile.UsedBytes).
		Msg("quota delta applied")

	if err := r.guard.Invalidate(ctx, p.OwnerID); err != nil {
		r.logger.Warn().Err(err).Str("owner", p.OwnerID).Msg("invalidate profile cache failed")
	}

	if r.pub != nil {
		err := queue.PublishQuotaChanged(r.pub, queue.QuotaChangedPayload{
			OwnerID:    p.OwnerID,
			Delta:      delta,
			UsedBytes:  profile.UsedBytes,
			QuotaBytes: profile.QuotaBytes,
		}, queue.WithProducer(configs.AppName), queue.WithTraceID(env.Header.TraceID))
		if err != nil {
			r.logger.Warn().Err(err).Str("owner", p.OwnerID).Msg("publish quota change failed")
		}
	}

	return nil
}
