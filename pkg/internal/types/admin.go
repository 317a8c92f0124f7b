package types

// ModerationRequest 管理员审核.
type ModerationRequest struct {
	AdminStatus string `json:"adminStatus" rule:"omitempty,oneof=pending approved rejected"`
	Visibility  string `json:"visibility"  rule:"omitempty,oneof=private shared blocked"`
}

// SetQuotaRequest 设置用户配额.
type SetQuotaRequest struct {
	QuotaBytes int64 `json:"quotaBytes" rule:"min=0"`
}

// QuotaResponse 用户配额.
type QuotaResponse struct {
	UID            string `json:"uid"`
	QuotaBytes     int64  `json:"quotaBytes"`
	UsedBytes      int64  `json:"usedBytes"`
	RemainingBytes int64  `json:"remainingBytes"`
}

// SweepResponse 一次回收的结果.
type SweepResponse struct {
	Stuck     SweepCounts `json:"stuck"`
	Abandoned SweepCounts `json:"abandoned"`
}

// SweepCounts 扫描、回收与跳过数量.
type SweepCounts struct {
	Scanned   int `json:"scanned"`
	Reclaimed int `json:"reclaimed"`
	Skipped   int `json:"skipped"`
}
