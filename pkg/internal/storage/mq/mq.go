// Package mq 提供基于 Watermill 的统一消息总线.
// 支持的后端：
//   - gochannel（进程内，默认）
//   - NATS（可选 JetStream）
//   - Redis Pub/Sub
//
// 发布走 Client.Publish；消费通过 Client.Handle 注册到 Router，由 Run 驱动.
// 每个 handler 拥有独立的订阅分组，同一主题上的多个 handler 都会收到每条消息.
package mq

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	nlog "github.com/omgitsguppey/SmartMedia-CMS/pkg/log"
	nmetrics "github.com/omgitsguppey/SmartMedia-CMS/pkg/metrics"
)

// ErrNotInitialized 客户端尚未初始化.
var ErrNotInitialized = errors.New("mq client not initialized")

// Backend 由工厂创建：一个共享 Publisher 与按分组创建 Subscriber 的函数.
type Backend struct {
	Publisher     message.Publisher
	NewSubscriber func(group string) (message.Subscriber, error)
	// Close 释放后端自身持有的连接（可为 nil）.
	Close func() error
}

// Factory 定义创建 Backend 的工厂函数.
type Factory func(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (*Backend, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[configs.MQType]Factory{}
)

// RegisterFactory 注册指定 MQType 的工厂.
func RegisterFactory(t configs.MQType, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	factories[t] = f
}

// GetRegisteredMQTypes 返回已注册的 MQ 类型（有序）.
func GetRegisteredMQTypes() []configs.MQType {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	types := make([]configs.MQType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}

	slices.Sort(types)

	return types
}

// HandlerFunc 消费一条消息；返回错误会触发重试，重试耗尽后 nack.
type HandlerFunc func(msg *message.Message) error

// Client 封装 watermill Publisher、Router 与订阅者.
type Client struct {
	backend     *Backend
	publisher   message.Publisher
	router      *message.Router
	logger      watermill.LoggerAdapter
	metrics     *metrics.PrometheusMetricsBuilder
	mu          sync.Mutex
	subscribers []message.Subscriber
}

// New 按全局配置初始化消息总线.
func New(ctx context.Context) (*Client, error) {
	cfg := configs.GetConfig()

	return Open(ctx, &cfg.MQ, cfg.Metrics.Enabled)
}

// Open 按给定配置初始化消息总线.
func Open(ctx context.Context, cfg *configs.MQConfig, withMetrics bool) (*Client, error) {
	factoriesMu.RLock()
	factory, ok := factories[cfg.Type]
	factoriesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported mq type: %s", cfg.Type)
	}

	logger := NewLogger(nlog.Component("mq"))

	backend, err := factory(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init mq (%s): %w", cfg.Type, err)
	}

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 30 * time.Second}, logger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	backoff := cfg.Router.HandlerRetryBackoff
	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      cfg.Router.HandlerRetries,
			InitialInterval: backoff,
			MaxInterval:     backoff * 16,
			Multiplier:      2,
			Logger:          logger,
		}.Middleware,
	)

	c := &Client{backend: backend, publisher: backend.Publisher, router: router, logger: logger}

	if withMetrics {
		builder := metrics.NewPrometheusMetricsBuilder(nmetrics.GetRegistry(), "", "")
		c.metrics = &builder
		c.metrics.AddPrometheusRouterMetrics(router)

		pub, err := c.metrics.DecoratePublisher(c.publisher)
		if err != nil {
			return nil, fmt.Errorf("decorate publisher with metrics: %w", err)
		}

		c.publisher = pub
	}

	logger.Info("mq initialized", watermill.LogFields{"type": string(cfg.Type)})

	return c, nil
}

// Publisher 返回（可能带指标装饰的）发布者.
func (c *Client) Publisher() message.Publisher {
	if c == nil {
		return nil
	}

	return c.publisher
}

// Publish 便捷发布.
func (c *Client) Publish(_ context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return ErrNotInitialized
	}

	return c.publisher.Publish(topic, msgs...)
}

// Handle 为 handler 创建独立分组的订阅并注册到 Router，须在 Run 之前调用.
func (c *Client) Handle(name, topic string, fn HandlerFunc) error {
	if c == nil || c.router == nil {
		return ErrNotInitialized
	}

	sub, err := c.backend.NewSubscriber(name)
	if err != nil {
		return fmt.Errorf("subscriber for %s: %w", name, err)
	}

	if c.metrics != nil {
		if sub, err = c.metrics.DecorateSubscriber(sub); err != nil {
			return fmt.Errorf("decorate subscriber %s: %w", name, err)
		}
	}

	c.mu.Lock()
	c.subscribers = append(c.subscribers, sub)
	c.mu.Unlock()

	c.router.AddNoPublisherHandler(name, topic, sub, message.NoPublishHandlerFunc(fn))

	return nil
}

// Subscribe 以临时分组直接订阅主题，供 CLI 调试使用.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.backend == nil {
		return nil, ErrNotInitialized
	}

	sub, err := c.backend.NewSubscriber("tap-" + watermill.NewShortUUID())
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.subscribers = append(c.subscribers, sub)
	c.mu.Unlock()

	return sub.Subscribe(ctx, topic)
}

// Run 运行 Router 直到 ctx 结束.
func (c *Client) Run(ctx context.Context) error {
	if c == nil || c.router == nil {
		return ErrNotInitialized
	}

	return c.router.Run(ctx)
}

// Running 在 Router 启动完成后关闭.
func (c *Client) Running() chan struct{} {
	return c.router.Running()
}

// Close 关闭资源.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}

	var errs []error

	if c.router != nil {
		errs = append(errs, c.router.Close())
	}

	c.mu.Lock()
	for _, s := range c.subscribers {
		errs = append(errs, s.Close())
	}
	c.subscribers = nil
	c.mu.Unlock()

	if c.publisher != nil {
		errs = append(errs, c.publisher.Close())
	}

	if c.backend != nil && c.backend.Close != nil {
		errs = append(errs, c.backend.Close())
	}

	return errors.Join(errs...)
}
