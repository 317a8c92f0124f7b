package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store"
	nlog "github.com/omgitsguppey/SmartMedia-CMS/pkg/log"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/metrics"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/tracing"
)

const (
	timeoutMessage   = "Analysis timed out. Please re-trigger analysis."
	abandonedMessage = "Upload never completed. Please upload the file again."
)

// SweepResult 一次扫描的统计.
type SweepResult struct {
	Scanned   int `json:"scanned"`
	Reclaimed int `json:"reclaimed"`
	Skipped   int `json:"skipped"`
}

// Watchdog 回收长时间停在中间状态的记录.
type Watchdog struct {
	store  *store.Store
	cfg    configs.PipelineConfig
	logger zerolog.Logger
}

// NewWatchdog 创建看门狗.
func NewWatchdog(s *store.Store, cfg configs.PipelineConfig) *Watchdog {
	if cfg.SweepBatch <= 0 {
		cfg.SweepBatch = configs.DefaultSweepBatch
	}

	if cfg.SweepConcurrency <= 0 {
		cfg.SweepConcurrency = configs.DefaultSweepConcurrency
	}

	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = configs.DefaultStaleAfter
	}

	if cfg.AbandonedUploadAfter <= 0 {
		cfg.AbandonedUploadAfter = configs.DefaultAbandonedUploadAfter
	}

	return &Watchdog{store: s, cfg: cfg, logger: nlog.Component("watchdog")}
}

// Sweep 把 updated_at 超过 stale_after 仍处于 pending/processing 的记录写成 failed(timeout).
// 重复执行是幂等的.
func (w *Watchdog) Sweep(ctx context.Context) (SweepResult, error) {
	return w.sweep(ctx, "watchdog.sweep", media.InFlight, w.cfg.StaleAfter, media.CodeTimeout, timeoutMessage)
}

// ReclaimAbandoned 把超过 abandoned_upload_after 仍在 uploading 的记录写成 failed(storage/unknown).
func (w *Watchdog) ReclaimAbandoned(ctx context.Context) (SweepResult, error) {
	return w.sweep(ctx, "uploads.abandoned", []media.Status{media.StatusUploading},
		w.cfg.AbandonedUploadAfter, media.CodeStorage, abandonedMessage)
}

func (w *Watchdog) sweep(ctx context.Context, name string, statuses []media.Status, olderThan time.Duration,
	code media.ErrorCode, msg string,
) (res SweepResult, err error) {
	ctx, span := tracing.StartSpan(ctx, name)
	defer func() { tracing.EndSpan(span, err) }()

	now := w.store.Now()
	cutoff := now.Add(-olderThan)
	guard := store.Guard{From: statuses, UpdatedBefore: cutoff}

	var reclaimed, skipped atomic.Int64

	for {
		batch, err := w.store.Stale(ctx, statuses, cutoff, w.cfg.SweepBatch)
		if err != nil {
			return w.result(res, &reclaimed, &skipped), err
		}

		res.Scanned += len(batch)

		var progressed atomic.Int64

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(w.cfg.SweepConcurrency)

		for i := range batch {
			rec := batch[i]

			g.Go(func() error {
				_, err := w.store.Transition(gctx, rec.ID, guard, media.StatusFailed, store.Failure(code, msg, now))

				switch {
				case err == nil:
					reclaimed.Add(1)
					progressed.Add(1)
					metrics.WatchdogReclaimed.WithLabelValues(string(rec.Status)).Inc()
					w.logger.Warn().Str("record_id", rec.ID).Str("owner", rec.OwnerID).
						Str("status", string(rec.Status)).Time("updated_at", rec.UpdatedAt).
						Str("code", string(code)).Msg("reclaimed stuck record")
				case errors.Is(err, store.ErrStateConflict), errors.Is(err, store.ErrNotFound):
					// 扫描与写入之间记录已被推进
					skipped.Add(1)
					progressed.Add(1)
				default:
					return err
				}

				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return w.result(res, &reclaimed, &skipped), err
		}

		if len(batch) < w.cfg.SweepBatch || progressed.Load() == 0 {
			break
		}
	}

	res = w.result(res, &reclaimed, &skipped)
	if res.Scanned > 0 {
		w.logger.Info().Str("sweep", name).Int("scanned", res.Scanned).Int("reclaimed", res.Reclaimed).
			Int("skipped", res.Skipped).Msg("sweep finished")
	}

	return res, nil
}

func (w *Watchdog) result(res SweepResult, reclaimed, skipped *atomic.Int64) SweepResult {
	res.Reclaimed = int(reclaimed.Load())
	res.Skipped = int(skipped.Load())

	return res
}
