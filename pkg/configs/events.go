package configs

import "github.com/spf13/viper"

// EventsConfig 控制记录变更事件的发布.
// 关闭后分析触发器与配额对账都不会收到事件，只应在一次性 CLI 命令中关闭.
type EventsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`  // 总开关
	Producer string `mapstructure:"producer"` // 事件头中的 producer 字段
	// ConsumerGroup 订阅者分组前缀，多实例部署时同组实例共享消费.
	ConsumerGroup string `mapstructure:"consumer_group"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", true)
	v.SetDefault("events.producer", AppName)
	v.SetDefault("events.consumer_group", AppName)
}
