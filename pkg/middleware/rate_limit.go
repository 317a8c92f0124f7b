package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
)

// RateLimitMiddleware 令牌桶限流. 非 global 模式下每个 key 一个 limiter，
// limiter 存在带过期的 LRU 里，闲置超过 cfg.Idle 或数量超过 cfg.MaxKeys 时被淘汰.
// 放在 AuthMiddleware 之后时可以按 user 维度限流.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = int(math.Ceil(cfg.RPS))
	}

	retryAfter := strconv.Itoa(int(math.Ceil(1 / cfg.RPS)))
	reject := func(c *gin.Context) {
		c.Header("Retry-After", retryAfter)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded", "code": "rate_limited"})
	}

	mode := strings.ToLower(strings.TrimSpace(cfg.Key))
	if mode == "" || mode == "global" {
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), burst)

		return func(c *gin.Context) {
			if !limiter.Allow() {
				reject(c)
				return
			}

			c.Next()
		}
	}

	size := cfg.MaxKeys
	if size <= 0 {
		size = configs.DefaultRateLimitKeys
	}

	idle := cfg.Idle
	if idle <= 0 {
		idle = configs.DefaultRateLimitIdle
	}

	limiters := expirable.NewLRU[string, *rate.Limiter](size, nil, idle)
	keyOf := rateKey(mode)

	return func(c *gin.Context) {
		key := keyOf(c)

		l, ok := limiters.Get(key)
		if !ok {
			l = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
			limiters.Add(key, l)
		}

		if !l.Allow() {
			reject(c)
			return
		}

		c.Next()
	}
}

// rateKey 按模式取限流 key，取不到时退回客户端 IP.
func rateKey(mode string) func(*gin.Context) string {
	switch {
	case mode == "user":
		return func(c *gin.Context) string {
			if id, ok := GetIdentity(c); ok {
				return "u:" + id.UID
			}

			return "ip:" + c.ClientIP()
		}
	case strings.HasPrefix(mode, "header:"):
		name := strings.TrimPrefix(mode, "header:")

		return func(c *gin.Context) string {
			if v := c.GetHeader(name); v != "" {
				return "h:" + v
			}

			return "ip:" + c.ClientIP()
		}
	default:
		return func(c *gin.Context) string { return "ip:" + c.ClientIP() }
	}
}
