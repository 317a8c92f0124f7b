package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/metrics"
)

// streamRoute SSE 连接由 ActiveConnections 单独计数，不进延迟直方图.
const streamRoute = "/api/v1/media/stream"

// PrometheusMiddleware 按路由模板记录请求数、延迟与响应大小，/media/:id 不会按 id 展开.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		if route == streamRoute {
			c.Next()
			metrics.RequestCounter.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()

			return
		}

		metrics.RequestsInFlight.Inc()
		defer metrics.RequestsInFlight.Dec()

		start := time.Now()

		c.Next()

		method := c.Request.Method
		metrics.RequestCounter.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

		if size := c.Writer.Size(); size > 0 {
			metrics.ResponseSize.WithLabelValues(method, route).Observe(float64(size))
		}
	}
}
