package mq_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage/mq"
)

func newGoChannelClient(t *testing.T) *mq.Client {
	t.Helper()

	cfg := &configs.MQConfig{
		Type:      configs.MQTypeGoChannel,
		GoChannel: configs.MQGoChannelConfig{OutputBuffer: 16},
		Router:    configs.MQRouterConfig{HandlerRetries: 2, HandlerRetryBackoff: time.Millisecond},
	}

	c, err := mq.Open(context.Background(), cfg, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func TestRegisteredTypes(t *testing.T) {
	types := mq.GetRegisteredMQTypes()
	assert.Contains(t, types, configs.MQTypeGoChannel)
	assert.Contains(t, types, configs.MQTypeNATS)
	assert.Contains(t, types, configs.MQTypeRedis)
}

func TestOpenUnknownType(t *testing.T) {
	_, err := mq.Open(context.Background(), &configs.MQConfig{Type: "kafka"}, false)
	assert.Error(t, err)
}

func TestHandleFanOutAndRetry(t *testing.T) {
	c := newGoChannelClient(t)

	var (
		mu       sync.Mutex
		seenA    []string
		seenB    []string
		attempts int
	)

	done := make(chan struct{}, 2)

	require.NoError(t, c.Handle("a", "topic.x", func(msg *message.Message) error {
		mu.Lock()
		defer mu.Unlock()

		seenA = append(seenA, msg.UUID)
		done <- struct{}{}

		return nil
	}))

	require.NoError(t, c.Handle("b", "topic.x", func(msg *message.Message) error {
		mu.Lock()
		defer mu.Unlock()

		attempts++
		if attempts == 1 {
			return assert.AnError
		}

		seenB = append(seenB, msg.UUID)
		done <- struct{}{}

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = c.Run(ctx) }()

	<-c.Running()

	id := watermill.NewUUID()
	require.NoError(t, c.Publish(ctx, "topic.x", message.NewMessage(id, []byte("{}"))))

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("handler not invoked")
		}
	}

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, []string{id}, seenA)
	assert.Equal(t, []string{id}, seenB)
	assert.Equal(t, 2, attempts)
}
