package mq

import (
	"context"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
)

const (
	DefaultDrainTimeout   = 30 * time.Second
	DefaultFlusherTimeout = 10 * time.Second
)

func init() {
	RegisterFactory(configs.MQTypeNATS, natsFactory)
}

// buildNatsOptions 构建 NATS 连接选项.
func buildNatsOptions(cfg *configs.MQConfig) []nc.Option {
	opts := []nc.Option{
		nc.Name(cfg.Common.ClientID),
		nc.MaxReconnects(cfg.Common.MaxReconnects),
		nc.ReconnectWait(cfg.Common.ReconnectWait),
		nc.PingInterval(cfg.Common.PingInterval),
		nc.MaxPingsOutstanding(cfg.Common.MaxPingsOut),
		nc.ReconnectBufSize(cfg.Common.BufferSize),
		nc.DrainTimeout(DefaultDrainTimeout),
		nc.FlusherTimeout(DefaultFlusherTimeout),
		nc.RetryOnFailedConnect(!cfg.Common.StrictConnect),
	}

	return appendAuthOptions(opts, cfg)
}

// appendAuthOptions 添加认证选项.
func appendAuthOptions(opts []nc.Option, cfg *configs.MQConfig) []nc.Option {
	switch {
	case cfg.NATS.JWT != "":
		opts = append(opts, nc.UserJWTAndSeed(cfg.NATS.JWT, cfg.NATS.NKey))
	case cfg.NATS.NKey != "":
		opts = append(opts, nc.Nkey(cfg.NATS.NKey, nil))
	case cfg.Common.User != "":
		opts = append(opts, nc.UserInfo(cfg.Common.User, cfg.Common.Password))
	}

	return opts
}

// buildJetStreamConfig 构建 JetStream 配置，durable 名按 handler 分组区分.
func buildJetStreamConfig(cfg *configs.MQConfig, group string) nats.JetStreamConfig {
	if !cfg.NATS.JetStreamEnabled {
		return nats.JetStreamConfig{Disabled: true}
	}

	durable := cfg.NATS.JetStreamDurablePrefix
	if group != "" {
		durable = durable + "-" + strings.ReplaceAll(group, ".", "_")
	}

	return nats.JetStreamConfig{
		AutoProvision: cfg.NATS.JetStreamAutoProvision,
		TrackMsgId:    cfg.NATS.JetStreamTrackMsgID,
		AckAsync:      cfg.NATS.JetStreamAckAsync,
		DurablePrefix: durable,
	}
}

// buildURL 构建连接 URL.
func buildURL(cfg *configs.MQConfig) string {
	if len(cfg.NATS.ClusterURLs) > 0 {
		return strings.Join(cfg.NATS.ClusterURLs, ",")
	}

	return cfg.Common.URL
}

// natsTopic JetStream 的 stream 名不允许出现点号.
func natsTopic(prefix, topic string) string {
	return strings.ReplaceAll(strings.TrimSuffix(prefix, ".")+"_"+topic, ".", "_")
}

// natsFactory 创建 NATS Backend；每个 handler 分组使用独立的队列组与 durable.
func natsFactory(_ context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (*Backend, error) {
	opts := buildNatsOptions(cfg)
	marshaler := &nats.JSONMarshaler{}

	pub, err := nats.NewPublisher(nats.PublisherConfig{
		URL:         buildURL(cfg),
		NatsOptions: opts,
		Marshaler:   marshaler,
		JetStream:   buildJetStreamConfig(cfg, ""),
	}, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("nats publisher ready", watermill.LogFields{
		"jetstream":  cfg.NATS.JetStreamEnabled,
		"stream":     cfg.NATS.StreamName,
		"prefix":     cfg.NATS.SubjectPrefix,
		"queue_mode": cfg.NATS.LoadBalance,
	})

	newSubscriber := func(group string) (message.Subscriber, error) {
		subCfg := nats.SubscriberConfig{
			URL:              buildURL(cfg),
			NatsOptions:      opts,
			Unmarshaler:      marshaler,
			SubscribersCount: 1,
			AckWaitTimeout:   cfg.NATS.ConsumerAckWait,
			CloseTimeout:     DefaultDrainTimeout,
			JetStream:        buildJetStreamConfig(cfg, group),
		}

		// 多实例部署时同一分组只有一个实例消费
		if cfg.NATS.LoadBalance {
			subCfg.QueueGroupPrefix = group
		}

		sub, err := nats.NewSubscriber(subCfg, logger)
		if err != nil {
			return nil, err
		}

		return &topicMappedSubscriber{Subscriber: sub, prefix: cfg.NATS.SubjectPrefix}, nil
	}

	return &Backend{
		Publisher:     &topicMappedPublisher{Publisher: pub, prefix: cfg.NATS.SubjectPrefix},
		NewSubscriber: newSubscriber,
	}, nil
}

type topicMappedPublisher struct {
	message.Publisher
	prefix string
}

func (p *topicMappedPublisher) Publish(topic string, msgs ...*message.Message) error {
	return p.Publisher.Publish(natsTopic(p.prefix, topic), msgs...)
}

type topicMappedSubscriber struct {
	message.Subscriber
	prefix string
}

func (s *topicMappedSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return s.Subscriber.Subscribe(ctx, natsTopic(s.prefix, topic))
}
