package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultWatchdogInterval     = 5 * time.Minute
	DefaultStaleAfter           = 5 * time.Minute
	DefaultSweepBatch           = 200
	DefaultSweepConcurrency     = 8
	DefaultContextWindow        = 50
	DefaultAnalyzeTimeout       = 120 * time.Second
	DefaultLedgerRetention      = 7 * 24 * time.Hour
	DefaultAbandonedUploadAfter = 24 * time.Hour
)

// PipelineConfig 分析流水线、看门狗与维护任务配置.
type PipelineConfig struct {
	WatchdogInterval     time.Duration `mapstructure:"watchdog_interval"      rule:"min=1s"`
	StaleAfter           time.Duration `mapstructure:"stale_after"            rule:"min=1s"`
	SweepBatch           int           `mapstructure:"sweep_batch"            rule:"min=1,max=10000"`
	SweepConcurrency     int           `mapstructure:"sweep_concurrency"      rule:"min=1,max=256"`
	ContextWindow        int           `mapstructure:"context_window"         rule:"min=0,max=1000"`
	AnalyzeTimeout       time.Duration `mapstructure:"analyze_timeout"        rule:"min=1s"`
	LedgerRetention      time.Duration `mapstructure:"ledger_retention"       rule:"min=1h"`
	AbandonedUploadAfter time.Duration `mapstructure:"abandoned_upload_after" rule:"min=1m"`
}

func (c *PipelineConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.watchdog_interval", DefaultWatchdogInterval)
	v.SetDefault("pipeline.stale_after", DefaultStaleAfter)
	v.SetDefault("pipeline.sweep_batch", DefaultSweepBatch)
	v.SetDefault("pipeline.sweep_concurrency", DefaultSweepConcurrency)
	v.SetDefault("pipeline.context_window", DefaultContextWindow)
	v.SetDefault("pipeline.analyze_timeout", DefaultAnalyzeTimeout)
	v.SetDefault("pipeline.ledger_retention", DefaultLedgerRetention)
	v.SetDefault("pipeline.abandoned_upload_after", DefaultAbandonedUploadAfter)
}
