package mq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
)

const (
	// DefaultChannelBufferSize 默认通道缓冲区大小.
	DefaultChannelBufferSize = 100
	// redisMaxRedeliver nack 后在本订阅内重投的次数.
	redisMaxRedeliver = 3
)

// redisEnvelope Redis Pub/Sub 只传字节，UUID 与 metadata 需要随负载一起编码.
type redisEnvelope struct {
	UUID     string            `json:"uuid"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Payload  []byte            `json:"payload"`
}

// RedisPublisher Redis Publisher 实现.
type RedisPublisher struct {
	client *redis.Client
}

// RedisSubscriber Redis Subscriber 实现，每次 Subscribe 建立独立的 PubSub.
type RedisSubscriber struct {
	client  *redis.Client
	logger  watermill.LoggerAdapter
	mu      sync.Mutex
	subs    []*redis.PubSub
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

func init() {
	RegisterFactory(configs.MQTypeRedis, redisFactory)
}

// redisFactory 创建 Redis Backend；Pub/Sub 没有消费组，分组只用于区分订阅.
func redisFactory(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (*Backend, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()

		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Backend{
		Publisher: &RedisPublisher{client: rdb},
		NewSubscriber: func(string) (message.Subscriber, error) {
			return &RedisSubscriber{client: rdb, logger: logger, closeCh: make(chan struct{})}, nil
		},
		Close: rdb.Close,
	}, nil
}

// Publish 实现 Publisher 接口.
func (p *RedisPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		data, err := sonic.Marshal(redisEnvelope{UUID: msg.UUID, Metadata: msg.Metadata, Payload: msg.Payload})
		if err != nil {
			return fmt.Errorf("encode message %s: %w", msg.UUID, err)
		}

		ctx := msg.Context()
		if err := p.client.Publish(ctx, topic, data).Err(); err != nil {
			return err
		}
	}

	return nil
}

// Close 连接由 Backend 统一关闭.
func (p *RedisPublisher) Close() error {
	return nil
}

// Subscribe 实现 Subscriber 接口.
func (s *RedisSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("redis subscriber closed")
	}

	ps := s.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()

		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	s.subs = append(s.subs, ps)
	out := make(chan *message.Message, DefaultChannelBufferSize)

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer close(out)

		in := ps.Channel()

		for {
			select {
			case <-s.closeCh:
				return
			case <-ctx.Done():
				return
			case raw, ok := <-in:
				if !ok {
					return
				}

				var env redisEnvelope
				if err := sonic.UnmarshalString(raw.Payload, &env); err != nil {
					s.logger.Error("drop undecodable redis message", err, watermill.LogFields{"topic": topic})

					continue
				}

				if !s.deliver(ctx, out, env) {
					return
				}
			}
		}
	}()

	return out, nil
}

// deliver 投递并等待 ack；nack 时最多重投 redisMaxRedeliver 次. 返回 false 表示订阅已结束.
func (s *RedisSubscriber) deliver(ctx context.Context, out chan<- *message.Message, env redisEnvelope) bool {
	for attempt := 0; attempt <= redisMaxRedeliver; attempt++ {
		msg := message.NewMessage(env.UUID, env.Payload)
		for k, v := range env.Metadata {
			msg.Metadata.Set(k, v)
		}

		msg.SetContext(ctx)

		select {
		case out <- msg:
		case <-s.closeCh:
			return false
		case <-ctx.Done():
			return false
		}

		select {
		case <-msg.Acked():
			return true
		case <-msg.Nacked():
			time.Sleep(time.Duration(attempt+1) * 100 * time.Millisecond)
		case <-s.closeCh:
			return false
		case <-ctx.Done():
			return false
		}
	}

	s.logger.Error("redis message dropped after redelivery", nil, watermill.LogFields{"uuid": env.UUID})

	return true
}

// Close 实现 Subscriber 接口.
func (s *RedisSubscriber) Close() error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return nil
	}

	s.closed = true
	close(s.closeCh)

	var errs []error
	for _, ps := range s.subs {
		errs = append(errs, ps.Close())
	}

	s.mu.Unlock()
	s.wg.Wait()

	return errors.Join(errs...)
}
