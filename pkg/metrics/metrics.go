// Package metrics 提供 Prometheus 指标：HTTP 请求、分析流水线与上传.
//
// Example:
//
//	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
//		log.Fatal(err)
//	}
//
//	metrics.Transitions.WithLabelValues("pending", "processing").Inc()
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
)

// HTTP 指标.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// RequestsInFlight 正在处理的普通请求数，不含 SSE.
	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// ResponseSize 响应体大小，上传与列表接口的体量差异靠它观察.
	ResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		},
		[]string{"method", "endpoint"},
	)

	// ActiveConnections 活跃的 SSE 长连接数.
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of active connections",
		},
	)
)

// 流水线指标.
var (
	// Transitions 记录状态迁移次数.
	Transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_transitions_total",
			Help: "Media record status transitions",
		},
		[]string{"from", "to"},
	)

	// AnalysisDuration AI 分析耗时.
	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_analysis_duration_seconds",
			Help:    "Duration of AI analysis calls",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"outcome", "trigger"},
	)

	// WatchdogReclaimed 看门狗回收的记录数.
	WatchdogReclaimed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_watchdog_reclaimed_total",
			Help: "Records moved to failed by the stuck-job watchdog",
		},
		[]string{"from"},
	)

	// QuotaDeltas 配额对账增量.
	QuotaDeltas = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_deltas_total",
			Help: "Quota deltas processed by the reconciler",
		},
		[]string{"result"},
	)

	// UploadBytes 已完成上传的字节数.
	UploadBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "media_upload_bytes_total",
			Help: "Bytes transferred by completed uploads",
		},
	)

	// UploadOutcomes 上传结果.
	UploadOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_upload_outcomes_total",
			Help: "Upload results by code",
		},
		[]string{"code"},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
	initOnce sync.Once
)

// InitMetrics 注册指标. 未启用时指标仍可写入，只是不会被导出.
// 所有指标带上 service、version 以及 cfg.Labels 里的常量标签.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	var err error

	initOnce.Do(func() {
		reg := prometheus.WrapRegistererWith(constLabels(config), registry)

		if config.RuntimeMetrics {
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}

		for _, c := range []prometheus.Collector{
			RequestCounter, RequestDuration, RequestsInFlight, ResponseSize, ActiveConnections,
			Transitions, AnalysisDuration, WatchdogReclaimed, QuotaDeltas, UploadBytes, UploadOutcomes,
		} {
			if err = reg.Register(c); err != nil {
				return
			}
		}
	})

	return err
}

func constLabels(config configs.MetricsConfig) prometheus.Labels {
	labels := prometheus.Labels{}
	for k, v := range config.Labels {
		labels[k] = v
	}

	if config.ServiceName != "" {
		labels["service"] = config.ServiceName
	}

	if config.ServiceVersion != "" {
		labels["version"] = config.ServiceVersion
	}

	return labels
}

// StartMetricsServer 把 /metrics（以及可选的 pprof）挂到给定引擎上.
func StartMetricsServer(config configs.MetricsConfig, engine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	if config.Pprof {
		engine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
