package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/tracing"
)

// TraceHeader 响应里回传的 trace id，方便把客户端报错和日志、事件对上.
const TraceHeader = "X-Trace-Id"

// TracingMiddleware 为每个请求开一个 server span，span 名用路由模板，上游带了 traceparent 时接续.
// 下游的 store 写入与事件发布会沿用同一个 trace id.
func TracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		parent := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		ctx, span := tracing.StartSpan(parent, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Request.Method),
				attribute.String("http.route", route),
				attribute.String("url.path", c.Request.URL.Path),
				attribute.String("client.address", c.ClientIP()),
				attribute.String("user_agent.original", c.Request.UserAgent()),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)

		if id := tracing.TraceID(ctx); id != "" {
			c.Header(TraceHeader, id)
		}

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.response.status_code", status))

		if id, ok := GetIdentity(c); ok {
			span.SetAttributes(attribute.String("enduser.id", id.UID), attribute.String("enduser.role", string(id.Role)))
		}

		if mediaID := c.Param("id"); mediaID != "" {
			span.SetAttributes(attribute.String("media.id", mediaID))
		}

		switch {
		case status >= http.StatusInternalServerError:
			span.SetStatus(codes.Error, http.StatusText(status))
		case len(c.Errors) > 0:
			span.SetStatus(codes.Error, c.Errors.String())
		}
	}
}
