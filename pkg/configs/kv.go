package configs

import (
	"github.com/spf13/viper"
)

const (
	KVTypeMemory = "memory"
	KVTypeRedis  = "redis"
	KVTypeNATS   = "nats"
)

// KVConfig 缓存后端配置. 用户档案缓存、统计响应缓存都落在这里.
type KVConfig struct {
	Type string `mapstructure:"type"       rule:"oneof=memory redis nats"`
	// KeyPrefix 只对 redis 生效，nats 的 bucket 本身已隔离.
	KeyPrefix string        `mapstructure:"key_prefix"`
	Redis     RedisKVConfig `mapstructure:"redis"`
	NATS      NATSKVConfig  `mapstructure:"nats"`
}

// RedisKVConfig Redis KV 配置.
type RedisKVConfig struct {
	Addr     string `mapstructure:"addr"     rule:"hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
}

// NATSKVConfig NATS KV 配置.
type NATSKVConfig struct {
	URL      string `mapstructure:"url"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Bucket   string `mapstructure:"bucket"   rule:"required"`
}

func (c *KVConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("kv.type", KVTypeMemory)
	v.SetDefault("kv.key_prefix", "sm:")

	v.SetDefault("kv.redis.addr", "localhost:6379")
	v.SetDefault("kv.redis.db", 0)

	v.SetDefault("kv.nats.url", "nats://localhost:4222")
	v.SetDefault("kv.nats.bucket", "smartmedia-kv")
}
