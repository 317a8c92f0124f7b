package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	nlog "github.com/omgitsguppey/SmartMedia-CMS/pkg/log"
)

var errServerFault = errors.New("server fault")

// CircuitBreakerMiddleware 在本服务持续返回 500/503/504 时短路请求.
// 502（AI 分析失败）由分析器自己的熔断处理，不计入这里.
func CircuitBreakerMiddleware(cfg configs.CircuitBreakerConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	logger := nlog.Component("http-breaker")

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "http",
		MaxRequests: cfg.MaxRequestsInHalf,
		Interval:    cfg.Interval(),
		Timeout:     cfg.Timeout(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}

			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRate
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("breaker state changed")
		},
	})

	retryAfter := strconv.Itoa(int(cfg.Timeout().Seconds()))

	return func(c *gin.Context) {
		_, err := cb.Execute(func() (any, error) {
			c.Next()

			switch c.Writer.Status() {
			case http.StatusInternalServerError, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
				return nil, errServerFault
			}

			return nil, nil
		})

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable", "code": "breaker_open"})
		}
	}
}
