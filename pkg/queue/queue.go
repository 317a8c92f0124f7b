// Package queue 定义记录变更事件的信封、主题与负载，供数据层发布、流水线与实时推送订阅.
//
// 概览
//   - 每次提交的媒体记录写入都会发布一条 sm.media.changed，负载带写入前后的快照
//   - 配额对账应用增量后发布 sm.quota.changed
//   - 统一的消息封装：Message[Payload] = Header + Payload
//   - JSON 编解码（bytedance/sonic）
//
// 消息信封 JSON 结构
//
//	{
//	  "header": {
//	    "id": "3f1c…",
//	    "topic": "sm.media.changed",
//	    "trace_id": "optional-trace-id",
//	    "producer": "smartmedia",
//	    "occurred_at": "2026-01-02T03:04:05.123456Z",
//	    "version": "v1"
//	  },
//	  "payload": { "record_id": "01J…", "owner_id": "a@b.c", "before": {…}, "after": {…} }
//	}
//
// header.id 与 watermill 消息 UUID 相同，并随信封一起传输：部分传输（Redis pub/sub）
// 不保留消息 UUID，消费者做幂等时只应依赖 header.id.
//
// 发布与消费
//
//	id, err := queue.PublishMediaChanged(pub, payload, queue.WithProducer("smartmedia"))
//
//	router.AddConsumerHandler("trigger", queue.TopicMediaChanged, sub, func(m *message.Message) error {
//		env, err := queue.ParseMediaChanged(m)
//		...
//	})
package queue

import (
	"time"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
)

const (
	PayloadVersionV1 string = "v1"

	// 元数据键.
	MetaTopic      = "topic"
	MetaTraceID    = "trace_id"
	MetaProducer   = "producer"
	MetaOccurredAt = "occurred_at"
	MetaVersion    = "version"
	MetaOwner      = "owner_id"
)

// NewEventHeader 便捷创建事件头.
func NewEventHeader(topic string, opts ...func(*EventHeader)) EventHeader {
	hdr := EventHeader{
		ID:         watermill.NewUUID(),
		Topic:      topic,
		OccurredAt: time.Now().UTC(),
		Version:    PayloadVersionV1,
	}
	for _, opt := range opts {
		opt(&hdr)
	}

	return hdr
}

// WithTraceID 设置 TraceID.
func WithTraceID(id string) func(*EventHeader) { return func(h *EventHeader) { h.TraceID = id } }

// WithProducer 设置 Producer.
func WithProducer(p string) func(*EventHeader) { return func(h *EventHeader) { h.Producer = p } }

// WithID 指定事件 ID，重放或测试时使用.
func WithID(id string) func(*EventHeader) { return func(h *EventHeader) { h.ID = id } }

// WithOccurredAt 指定事件时间.
func WithOccurredAt(t time.Time) func(*EventHeader) {
	return func(h *EventHeader) { h.OccurredAt = t.UTC() }
}

// Encode 将消息封装为 JSON 字节切片.
func Encode[T any](msg Message[T]) ([]byte, error) { return sonic.Marshal(msg) }

// Decode 从 JSON 字节解码为消息.
func Decode[T any](b []byte) (Message[T], error) {
	var m Message[T]

	err := sonic.Unmarshal(b, &m)

	return m, err
}

// NewWatermillMessage 构造一个 watermill 消息，消息 UUID 与 header.id 一致.
func NewWatermillMessage[T any](topic string, payload T, opts ...func(*EventHeader)) (*message.Message, error) {
	header := NewEventHeader(topic, opts...)
	env := Message[T]{Header: header, Payload: payload}

	data, err := Encode(env)
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(header.ID, data)
	msg.Metadata.Set(MetaTopic, topic)

	if header.TraceID != "" {
		msg.Metadata.Set(MetaTraceID, header.TraceID)
	}

	if header.Producer != "" {
		msg.Metadata.Set(MetaProducer, header.Producer)
	}

	msg.Metadata.Set(MetaOccurredAt, header.OccurredAt.Format(time.RFC3339Nano))
	msg.Metadata.Set(MetaVersion, header.Version)

	return msg, nil
}

// ParseWatermillMessage 解出泛型负载. header.id 缺失时回填消息 UUID.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	env, err := Decode[T](msg.Payload)
	if err != nil {
		return env, err
	}

	if env.Header.ID == "" {
		env.Header.ID = msg.UUID
	}

	return env, nil
}
