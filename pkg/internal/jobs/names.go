package jobs

// 任务名称常量，便于统一管理与引用.
const (
	JobWatchdogSweep    = "watchdog.sweep"
	JobAbandonedUploads = "uploads.abandoned"
	JobLedgerPrune      = "quota.ledger.prune"
	JobQuotaAudit       = "quota.audit"
)

// Cron 表达式常量（UTC）.
const (
	CronAbandonedUploads = "0 * * * *"
	CronLedgerPrune      = "30 3 * * *"
	CronQuotaAudit       = "10 4 * * *"
)
