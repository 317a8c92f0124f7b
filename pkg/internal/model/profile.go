package model

import (
	"time"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
)

// UserProfile 用户配额档案. UsedBytes 只由配额对账器增量修改.
type UserProfile struct {
	UID        string     `gorm:"primaryKey;size:255" json:"uid"`
	Role       media.Role `gorm:"size:16;not null;default:user" json:"role"`
	QuotaBytes int64      `gorm:"not null"                      json:"quotaBytes"`
	UsedBytes  int64      `gorm:"not null;default:0"            json:"usedBytes"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// TableName 表名.
func (UserProfile) TableName() string {
	return "user_profiles"
}

// Remaining 剩余可用字节，超额时为 0.
func (p *UserProfile) Remaining() int64 {
	if left := p.QuotaBytes - p.UsedBytes; left > 0 {
		return left
	}

	return 0
}

// QuotaLedger 已应用的配额增量，event_id 唯一保证至少一次投递下的幂等.
type QuotaLedger struct {
	EventID   string    `gorm:"primaryKey;size:64"`
	OwnerID   string    `gorm:"size:255;index"`
	RecordID  string    `gorm:"size:26"`
	Delta     int64     `gorm:"not null"`
	CreatedAt time.Time `gorm:"index"`
}

// TableName 表名.
func (QuotaLedger) TableName() string {
	return "quota_ledger"
}

// All 需要自动迁移的模型.
func All() []any {
	return []any{&MediaRecord{}, &UserProfile{}, &QuotaLedger{}}
}
