// Package configs 管理应用程序配置，包括数据库、对象存储、消息总线、分析流水线等配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv），环境变量覆盖并启用热重载.
//
// Example:
//
//	if err := configs.InitConfig("./"); err != nil {
//		log.Fatal(err)
//	}
//
//	cfg := configs.GetConfig()
//	fmt.Println(cfg.Server.Port, cfg.Pipeline.StaleAfter)
//
// 环境变量使用 SMARTMEDIA_ 前缀，层级用下划线分隔，例如 SMARTMEDIA_DB_TYPE=sqlite.
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀.
const EnvPrefix = "SMARTMEDIA"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server         ServerConfig         `mapstructure:"server"`          // 服务器端口、调试模式、热重载
		Log            LogConfig            `mapstructure:"log"`             // 日志相关配置
		DB             DBConfig             `mapstructure:"db"`              // 数据库配置
		S3             S3Config             `mapstructure:"s3"`              // 对象存储配置
		MQ             MQConfig             `mapstructure:"mq"`              // 消息总线配置
		KV             KVConfig             `mapstructure:"kv"`              // 键值缓存配置
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // 监控指标
		Tracing        TracingConfig        `mapstructure:"tracing"`         // 链路追踪
		Auth           AuthConfig           `mapstructure:"auth"`            // 身份认证
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // HTTP 限流
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // HTTP 熔断
		Events         EventsConfig         `mapstructure:"events"`          // 变更事件
		Pipeline       PipelineConfig       `mapstructure:"pipeline"`        // 分析流水线与看门狗
		Analyzer       AnalyzerConfig       `mapstructure:"analyzer"`        // AI 分析服务
		Quota          QuotaConfig          `mapstructure:"quota"`           // 存储配额
		Upload         UploadConfig         `mapstructure:"upload"`          // 上传协调器
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
	// mu 保护热重载时的并发读写.
	mu sync.RWMutex
)

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
// 找不到配置文件时只使用默认值与环境变量.
func InitConfig(path string) error {
	v := viper.New()
	// 设置默认值
	setAllDefaults(v)

	// 检查path是否是文件
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(path)
		v.AddConfigPath(filepath.Join(path, "configs"))

		exts := []string{"yaml", "yml", "json", "toml", "env", "dotenv"}

		for _, ext := range exts {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				v.SetConfigFile(cfg)

				break
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	mu.Lock()
	globalConfig = cfg
	appViper = v
	mu.Unlock()

	reloadConfigs(v, cfg.Server.ReloadConfig)

	return nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var (
		serverConfig   ServerConfig
		logConfig      LogConfig
		dbConfig       DBConfig
		s3Config       S3Config
		mqConfig       MQConfig
		kvConfig       KVConfig
		metricsConfig  MetricsConfig
		tracingConfig  TracingConfig
		authConfig     AuthConfig
		rateLimit      RateLimitConfig
		circuitBreaker CircuitBreakerConfig
		eventsConfig   EventsConfig
		pipelineConfig PipelineConfig
		analyzerConfig AnalyzerConfig
		quotaConfig    QuotaConfig
		uploadConfig   UploadConfig
	)

	serverConfig.setDefaults(v)
	logConfig.setDefaults(v)
	dbConfig.setDefaults(v)
	s3Config.setDefaults(v)
	mqConfig.setDefaults(v)
	kvConfig.setDefaults(v)
	metricsConfig.setDefaults(v)
	tracingConfig.setDefaults(v)
	authConfig.setDefaults(v)
	rateLimit.setDefaults(v)
	circuitBreaker.setDefaults(v)
	eventsConfig.setDefaults(v)
	pipelineConfig.setDefaults(v)
	analyzerConfig.setDefaults(v)
	quotaConfig.setDefaults(v)
	uploadConfig.setDefaults(v)
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload || v.ConfigFileUsed() == "" {
		return
	}
	// 启用配置热重载
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("Config file changed:", e.Name)

		var cfg AppConfig
		if err := v.Unmarshal(&cfg); err != nil {
			fmt.Printf("Error reloading config: %v\n", err)

			return
		}

		mu.Lock()
		globalConfig = cfg
		mu.Unlock()
	})
	v.WatchConfig()
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	mu.RLock()
	defer mu.RUnlock()

	return &globalConfig
}

// GetViper 返回全局 Viper 实例.
func GetViper() *viper.Viper {
	mu.RLock()
	defer mu.RUnlock()

	return appViper
}
