// Package jobs 负责注册与实现后台定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"fmt"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/pipeline"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/log"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/scheduler"
)

// Deps 任务依赖.
type Deps struct {
	Store    *store.Store
	Pipeline *pipeline.Pipeline
	Config   configs.PipelineConfig
}

// RegisterJobs 配置后台任务：
//   - 每 watchdog_interval 回收卡住的分析
//   - 每小时回收遗弃的上传
//   - 每天 03:30 清理过期的配额账本
//   - 每天 04:10 审计配额记账漂移
func RegisterJobs(ctx context.Context, sched *scheduler.Scheduler, d Deps) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if d.Store == nil || d.Pipeline == nil {
		return fmt.Errorf("jobs: store and pipeline are required")
	}

	interval := d.Config.WatchdogInterval
	if interval <= 0 {
		interval = configs.DefaultWatchdogInterval
	}

	if err := sched.AddInterval(ctx, JobWatchdogSweep, interval, func(ctx context.Context) error {
		_, err := d.Pipeline.Watchdog.Sweep(ctx)
		return err
	}); err != nil {
		return err
	}

	if err := sched.AddCron(ctx, JobAbandonedUploads, CronAbandonedUploads, func(ctx context.Context) error {
		_, err := d.Pipeline.Watchdog.ReclaimAbandoned(ctx)
		return err
	}); err != nil {
		return err
	}

	if err := sched.AddCron(ctx, JobLedgerPrune, CronLedgerPrune, func(ctx context.Context) error {
		return PruneLedger(ctx, d.Store, d.Config)
	}); err != nil {
		return err
	}

	return sched.AddCron(ctx, JobQuotaAudit, CronQuotaAudit, func(ctx context.Context) error {
		_, err := AuditQuota(ctx, d.Store)
		return err
	})
}

// PruneLedger 删除超过保留期的账本行. 超过保留期的重复投递将不再被识别.
func PruneLedger(ctx context.Context, s *store.Store, cfg configs.PipelineConfig) error {
	retention := cfg.LedgerRetention
	if retention <= 0 {
		retention = configs.DefaultLedgerRetention
	}

	n, err := s.PruneLedger(ctx, s.Now().Add(-retention))
	if err != nil {
		return err
	}

	l := log.Component("jobs")
	l.Info().Str("job", JobLedgerPrune).Int64("deleted", n).Dur("retention", retention).
		Msg("ledger pruned")

	return nil
}

// AuditQuota 比较记账与实际记录字节数，只记录漂移不修复.
func AuditQuota(ctx context.Context, s *store.Store) ([]store.Drift, error) {
	l := log.Component("jobs").With().Str("job", JobQuotaAudit).Logger()

	drift, err := s.UsageDrift(ctx)
	if err != nil {
		return nil, err
	}

	for _, d := range drift {
		l.Warn().Str("owner", d.OwnerID).Int64("recorded", d.Recorded).Int64("actual", d.Actual).
			Int64("diff", d.Diff()).Msg("quota drift")
	}

	l.Info().Int("drifted", len(drift)).Msg("quota audit done")

	return drift, nil
}
