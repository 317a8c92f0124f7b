package queue_test

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/queue"
)

type capturePublisher struct {
	topic string
	msgs  []*message.Message
}

func (p *capturePublisher) Publish(topic string, msgs ...*message.Message) error {
	p.topic = topic
	p.msgs = append(p.msgs, msgs...)

	return nil
}

func (p *capturePublisher) Close() error { return nil }

func TestPublishMediaChangedCarriesEventID(t *testing.T) {
	pub := &capturePublisher{}
	payload := queue.MediaChangedPayload{
		RecordID: "01J0000000000000000000000",
		OwnerID:  "owner@example.com",
		After:    &queue.RecordSnapshot{ID: "01J0000000000000000000000", Status: media.StatusPending, SizeBytes: 42},
	}

	id, err := queue.PublishMediaChanged(pub, payload, queue.WithProducer("test"))
	require.NoError(t, err)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, queue.TopicMediaChanged, pub.topic)
	assert.Equal(t, id, pub.msgs[0].UUID)
	assert.Equal(t, "owner@example.com", pub.msgs[0].Metadata.Get(queue.MetaOwner))

	// 模拟丢失 UUID 的传输，header.id 仍可用于幂等
	relayed := message.NewMessage("", pub.msgs[0].Payload)
	env, err := queue.ParseMediaChanged(relayed)
	require.NoError(t, err)
	assert.Equal(t, id, env.Header.ID)
	assert.Equal(t, "test", env.Header.Producer)
	assert.Equal(t, queue.ChangeCreated, env.Payload.Kind())
	assert.Equal(t, media.StatusPending, env.Payload.After.Status)
}

func TestChangeKind(t *testing.T) {
	snap := &queue.RecordSnapshot{Status: media.StatusReady}

	assert.Equal(t, queue.ChangeDeleted, queue.MediaChangedPayload{Before: snap}.Kind())
	assert.Equal(t, queue.ChangeUpdated, queue.MediaChangedPayload{Before: snap, After: snap}.Kind())
	assert.False(t, queue.MediaChangedPayload{Before: snap, After: snap}.StatusChanged())
	assert.True(t, queue.MediaChangedPayload{After: snap}.StatusChanged())
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := queue.ParseQuotaChanged(message.NewMessage("x", []byte("{not json")))
	assert.Error(t, err)
}
