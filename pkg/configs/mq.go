package configs

import (
	"time"

	"github.com/spf13/viper"
)

// MQType 消息总线后端.
type MQType string

const (
	MQTypeNATS      MQType = "nats"
	MQTypeRedis     MQType = "redis"
	MQTypeGoChannel MQType = "gochannel" // 进程内总线，单实例部署与测试使用
)

const (
	DefaultMQURL           = "nats://localhost:4222"
	DefaultMQClientID      = AppName
	DefaultMaxReconnects   = 5
	DefaultReconnectWait   = 5 * time.Second
	DefaultPingInterval    = 20 * time.Second
	DefaultMaxPingsOut     = 3
	DefaultReconnectBuffer = 8 << 20 // 断线期间缓存的待发布字节数

	DefaultStreamName      = AppName + "-events"
	DefaultSubjectPrefix   = AppName + "."
	DefaultDurablePrefix   = AppName
	DefaultConsumerAckWait = 30 * time.Second

	DefaultHandlerRetries      = 3
	DefaultHandlerRetryBackoff = 500 * time.Millisecond
	DefaultGoChannelBuffer     = 1024
)

// MQConfig 消息总线配置. 生命周期事件与配额增量都走这里.
type MQConfig struct {
	Type      MQType            `mapstructure:"type"      rule:"oneof=nats redis gochannel"`
	Common    MQCommonConfig    `mapstructure:"common"`
	NATS      MQNATSConfig      `mapstructure:"nats"`
	Redis     MQRedisConfig     `mapstructure:"redis"`
	GoChannel MQGoChannelConfig `mapstructure:"gochannel"`
	Router    MQRouterConfig    `mapstructure:"router"`
}

// MQCommonConfig NATS 连接参数.
type MQCommonConfig struct {
	URL           string        `mapstructure:"url"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	ClientID      string        `mapstructure:"client_id"`
	MaxReconnects int           `mapstructure:"max_reconnects" rule:"min=-1,max=100"` // -1 无限重连
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	PingInterval  time.Duration `mapstructure:"ping_interval"`
	MaxPingsOut   int           `mapstructure:"max_pings_out"  rule:"min=1,max=10"`
	BufferSize    int           `mapstructure:"buffer_size"    rule:"min=0"`
	// StrictConnect 启动时连不上直接失败，否则后台重试.
	StrictConnect bool `mapstructure:"strict_connect"`
}

// MQNATSConfig NATS / JetStream 配置.
type MQNATSConfig struct {
	JetStreamEnabled       bool          `mapstructure:"jetstream_enabled"`
	JetStreamAutoProvision bool          `mapstructure:"jetstream_auto_provision"`
	JetStreamTrackMsgID    bool          `mapstructure:"jetstream_track_msg_id"`
	JetStreamAckAsync      bool          `mapstructure:"jetstream_ack_async"`
	JetStreamDurablePrefix string        `mapstructure:"jetstream_durable_prefix"`
	StreamName             string        `mapstructure:"stream_name"`
	SubjectPrefix          string        `mapstructure:"subject_prefix"`
	ConsumerAckWait        time.Duration `mapstructure:"consumer_ack_wait"`
	JWT                    string        `mapstructure:"jwt"`
	NKey                   string        `mapstructure:"nkey"`
	ClusterURLs            []string      `mapstructure:"cluster_urls"`
	// LoadBalance 同一消费分组在多个实例间只投递一次.
	LoadBalance bool `mapstructure:"load_balance"`
}

// MQRedisConfig Redis Streams 配置.
type MQRedisConfig struct {
	Addr     string `mapstructure:"addr"     rule:"hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
}

// MQGoChannelConfig 进程内总线配置.
type MQGoChannelConfig struct {
	OutputBuffer int64 `mapstructure:"output_buffer" rule:"min=0"`
	Persistent   bool  `mapstructure:"persistent"` // 保留已发布消息给之后的订阅者
}

// MQRouterConfig 消费端失败重试.
type MQRouterConfig struct {
	HandlerRetries      int           `mapstructure:"handler_retries"       rule:"min=0,max=20"`
	HandlerRetryBackoff time.Duration `mapstructure:"handler_retry_backoff"`
}

func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.type", MQTypeGoChannel)

	v.SetDefault("mq.common.url", DefaultMQURL)
	v.SetDefault("mq.common.client_id", DefaultMQClientID)
	v.SetDefault("mq.common.max_reconnects", DefaultMaxReconnects)
	v.SetDefault("mq.common.reconnect_wait", DefaultReconnectWait)
	v.SetDefault("mq.common.ping_interval", DefaultPingInterval)
	v.SetDefault("mq.common.max_pings_out", DefaultMaxPingsOut)
	v.SetDefault("mq.common.buffer_size", DefaultReconnectBuffer)
	v.SetDefault("mq.common.strict_connect", false)

	v.SetDefault("mq.nats.jetstream_enabled", true)
	v.SetDefault("mq.nats.jetstream_auto_provision", true)
	v.SetDefault("mq.nats.jetstream_track_msg_id", true)
	v.SetDefault("mq.nats.jetstream_ack_async", false)
	v.SetDefault("mq.nats.jetstream_durable_prefix", DefaultDurablePrefix)
	v.SetDefault("mq.nats.stream_name", DefaultStreamName)
	v.SetDefault("mq.nats.subject_prefix", DefaultSubjectPrefix)
	v.SetDefault("mq.nats.consumer_ack_wait", DefaultConsumerAckWait)
	v.SetDefault("mq.nats.cluster_urls", []string{})
	v.SetDefault("mq.nats.load_balance", true)

	v.SetDefault("mq.redis.addr", "localhost:6379")
	v.SetDefault("mq.redis.db", 0)

	v.SetDefault("mq.gochannel.output_buffer", DefaultGoChannelBuffer)
	v.SetDefault("mq.gochannel.persistent", false)

	v.SetDefault("mq.router.handler_retries", DefaultHandlerRetries)
	v.SetDefault("mq.router.handler_retry_backoff", DefaultHandlerRetryBackoff)
}
