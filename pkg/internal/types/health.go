package types

// ComponentHealth 单个依赖的探测结果.
type ComponentHealth struct {
	Component string `json:"component"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// HealthReport 就绪检查汇总.
type HealthReport struct {
	Status     string            `json:"status"`
	Components []ComponentHealth `json:"components"`
}
