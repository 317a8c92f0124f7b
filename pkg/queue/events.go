package queue

import (
	"time"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
)

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// ID 事件唯一标识，消费者幂等键.
	ID string `json:"id"`
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// RecordSnapshot 写入前后记录的精简快照，足够让消费者做守卫判断与配额计算.
type RecordSnapshot struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Status      media.Status    `json:"status"`
	SizeBytes   int64           `json:"size_bytes"`
	MimeType    string          `json:"mime_type,omitempty"`
	DownloadURL string          `json:"download_url,omitempty"`
	ErrorCode   media.ErrorCode `json:"error_code,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ChangeKind 变更类型.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// MediaChangedPayload 一次已提交写入. 创建时 Before 为空，删除时 After 为空.
type MediaChangedPayload struct {
	RecordID string          `json:"record_id"`
	OwnerID  string          `json:"owner_id"`
	Before   *RecordSnapshot `json:"before,omitempty"`
	After    *RecordSnapshot `json:"after,omitempty"`
}

// Kind 根据快照推断变更类型.
func (p MediaChangedPayload) Kind() ChangeKind {
	switch {
	case p.Before == nil:
		return ChangeCreated
	case p.After == nil:
		return ChangeDeleted
	default:
		return ChangeUpdated
	}
}

// StatusChanged 状态是否发生变化.
func (p MediaChangedPayload) StatusChanged() bool {
	if p.Before == nil || p.After == nil {
		return true
	}

	return p.Before.Status != p.After.Status
}

// QuotaChangedPayload 配额对账器应用增量后的结果.
type QuotaChangedPayload struct {
	OwnerID    string `json:"owner_id"`
	Delta      int64  `json:"delta"`
	UsedBytes  int64  `json:"used_bytes"`
	QuotaBytes int64  `json:"quota_bytes"`
}
