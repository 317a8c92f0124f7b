package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/log"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/tracing"
)

// quietPrefixes 探活与指标抓取只在 debug 级别记录.
var quietPrefixes = []string{"/metrics", "/api/v1/health"}

// GinLoggerMiddleware 访问日志. 5xx 记 error，4xx 记 warn，其余 info.
func GinLoggerMiddleware() gin.HandlerFunc {
	logger := log.Component("http")

	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		path := c.Request.URL.Path

		var ev *zerolog.Event

		switch {
		case status >= http.StatusInternalServerError:
			ev = logger.Error()
		case status >= http.StatusBadRequest:
			ev = logger.Warn()
		case isQuiet(path):
			ev = logger.Debug()
		default:
			ev = logger.Info()
		}

		ev = ev.Int("status", status).
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Str("path", path).
			Dur("latency", time.Since(start)).
			Int("bytes", c.Writer.Size()).
			Str("client_ip", c.ClientIP())

		if id, ok := GetIdentity(c); ok {
			ev = ev.Str("uid", id.UID)
		}

		if mediaID := c.Param("id"); mediaID != "" {
			ev = ev.Str("media_id", mediaID)
		}

		if tid := tracing.TraceID(c.Request.Context()); tid != "" {
			ev = ev.Str("trace_id", tid)
		}

		if len(c.Errors) > 0 {
			ev = ev.Str("error", c.Errors.String())
		}

		ev.Msg("request")
	}
}

func isQuiet(path string) bool {
	for _, p := range quietPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}
