package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/analyzer"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/model"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/metrics"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/tracing"
)

const (
	triggerAuto   = "auto"
	triggerManual = "manual"
)

// runner 对一条已处于 processing 的记录执行：收集上下文、调用模型、写回结果.
// 任何失败（包括 panic）都会把记录写成 failed.
type runner struct {
	store    *store.Store
	analyzer analyzer.Analyzer
	cfg      configs.PipelineConfig
	logger   zerolog.Logger
}

func (r *runner) run(ctx context.Context, rec *model.MediaRecord, manual bool) (err error) {
	trigger := triggerAuto
	if manual {
		trigger = triggerManual
	}

	ctx, span := tracing.StartSpan(ctx, "pipeline.analyze")
	start := time.Now()
	log := r.logger.With().Str("record_id", rec.ID).Str("owner", rec.OwnerID).Str("trigger", trigger).Logger()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("analysis panicked: %v", p)
		}

		outcome := "ready"
		if err != nil {
			outcome = "failed"
			// 调用方可能已经取消，失败状态仍然要落库
			r.fail(context.WithoutCancel(ctx), rec.ID, err, log)
		}

		metrics.AnalysisDuration.WithLabelValues(outcome, trigger).Observe(time.Since(start).Seconds())
		tracing.EndSpan(span, err)
	}()

	people, perr := r.store.RecentPeople(ctx, rec.OwnerID, r.cfg.ContextWindow)
	if perr != nil {
		log.Warn().Err(perr).Msg("personalization context unavailable, continuing without it")

		people = nil
	}

	actx := ctx
	if r.cfg.AnalyzeTimeout > 0 {
		var cancel context.CancelFunc

		actx, cancel = context.WithTimeout(ctx, r.cfg.AnalyzeTimeout)
		defer cancel()
	}

	res, err := r.analyzer.Analyze(actx, analyzer.Request{
		RecordID:    rec.ID,
		OwnerID:     rec.OwnerID,
		ObjectKey:   rec.StoragePath,
		DownloadURL: rec.URL(),
		MimeType:    rec.MimeType,
		KnownPeople: people,
	})
	if err != nil {
		return err
	}

	result := res.Analysis()
	if len(result.Tags) == 0 {
		return fmt.Errorf("%w: no usable tags", analyzer.ErrMalformed)
	}

	if !manual && rec.Analysis.IsUserEdited {
		// 自动路径不覆盖人工修正
		result.Tags = rec.Analysis.Tags
		result.People = rec.Analysis.People
		result.Verdict = rec.Analysis.Verdict
		result.SafetyReason = rec.Analysis.SafetyReason
		result.IsUserEdited = true
	}

	_, err = r.store.Transition(ctx, rec.ID, store.Guard{From: []media.Status{media.StatusProcessing}},
		media.StatusReady, store.AnalysisResult(result, r.store.Now()))
	if err != nil {
		return fmt.Errorf("write analysis: %w", err)
	}

	log.Info().Int("tags", len(result.Tags)).Str("verdict", string(result.Verdict)).
		Dur("took", time.Since(start)).Msg("analysis complete")

	return nil
}

// fail 把 processing 记录写成 failed. 记录已被其他写入者推进时什么也不做.
func (r *runner) fail(ctx context.Context, id string, cause error, log zerolog.Logger) {
	_, err := r.store.Transition(ctx, id, store.Guard{From: []media.Status{media.StatusProcessing}},
		media.StatusFailed, store.Failure(media.CodeAnalysisFailed, cause.Error(), r.store.Now()))

	switch {
	case err == nil:
		log.Warn().Err(cause).Str("code", string(media.CodeAnalysisFailed)).Msg("analysis failed")
	case errors.Is(err, store.ErrStateConflict), errors.Is(err, store.ErrNotFound):
		log.Info().Err(cause).Msg("analysis failed but record already moved on")
	default:
		log.Error().Err(err).AnErr("cause", cause).Msg("could not record analysis failure")
	}
}
