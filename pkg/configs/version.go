package configs

// AppName 应用名称，用于日志、指标与追踪的服务名.
const AppName = "smartmedia"

// AppVersion 应用版本，可在构建时通过 -ldflags 覆盖.
var AppVersion = "0.1.0"
