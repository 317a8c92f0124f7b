package queue

import "github.com/ThreeDotsLabs/watermill/message"

// PublishMediaChanged 发布 sm.media.changed，返回事件 ID.
func PublishMediaChanged(pub message.Publisher, payload MediaChangedPayload, opts ...func(*EventHeader)) (string, error) {
	msg, err := NewWatermillMessage(TopicMediaChanged, payload, opts...)
	if err != nil {
		return "", err
	}

	msg.Metadata.Set(MetaOwner, payload.OwnerID)

	return msg.UUID, pub.Publish(TopicMediaChanged, msg)
}

// ParseMediaChanged 将 Watermill 消息解析为强类型 Envelope.
func ParseMediaChanged(msg *message.Message) (Message[MediaChangedPayload], error) {
	return ParseWatermillMessage[MediaChangedPayload](msg)
}

// PublishQuotaChanged 发布 sm.quota.changed.
func PublishQuotaChanged(pub message.Publisher, payload QuotaChangedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicQuotaChanged, payload, opts...)
	if err != nil {
		return err
	}

	msg.Metadata.Set(MetaOwner, payload.OwnerID)

	return pub.Publish(TopicQuotaChanged, msg)
}

// ParseQuotaChanged 解析 sm.quota.changed.
func ParseQuotaChanged(msg *message.Message) (Message[QuotaChangedPayload], error) {
	return ParseWatermillMessage[QuotaChangedPayload](msg)
}
