package middleware

import (
	"bytes"
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	appcache "github.com/omgitsguppey/SmartMedia-CMS/pkg/cache"
	nlog "github.com/omgitsguppey/SmartMedia-CMS/pkg/log"
)

const (
	DefaultMaxBodyBytes = 1 << 20 // 1MB
	defaultResponseTTL  = 30 * time.Second
	bypassHeader        = "X-Cache-Bypass"
)

// CacheConfig 响应缓存配置.
type CacheConfig struct {
	Cache *appcache.Cache
	TTL   time.Duration
	// Scope 决定响应对谁可见，结果拼进缓存键. 默认按身份（uid + 角色）隔离.
	Scope func(*gin.Context) string
	// MaxBodyBytes 超过该大小的响应不缓存，0 表示不限制.
	MaxBodyBytes int
}

// DefaultCacheConfig 返回按身份隔离、30 秒过期的配置.
func DefaultCacheConfig(c *appcache.Cache) CacheConfig {
	return CacheConfig{
		Cache:        c,
		TTL:          defaultResponseTTL,
		Scope:        identityScope,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// cachedResponse 写入 KV 的响应快照.
type cachedResponse struct {
	Status      int    `json:"s"`
	ContentType string `json:"c,omitempty"`
	Body        []byte `json:"b,omitempty"`
	ETag        string `json:"e"`
	StoredAt    int64  `json:"t"`
}

// CacheMiddleware 缓存 GET/HEAD 的 200 响应.
//
// 命中时返回 X-Cache: HIT 与 Age，If-None-Match 匹配时返回 304.
// 请求带 X-Cache-Bypass 或响应声明 Cache-Control: no-store 时不读写缓存.
// 缓存读写失败只记日志，不影响请求本身.
func CacheMiddleware(cfg CacheConfig) gin.HandlerFunc {
	if cfg.Cache == nil {
		panic("CacheMiddleware: Cache cannot be nil")
	}

	if cfg.TTL <= 0 {
		cfg.TTL = defaultResponseTTL
	}

	if cfg.Scope == nil {
		cfg.Scope = identityScope
	}

	logger := nlog.Component("response-cache")

	return func(c *gin.Context) {
		if !cacheable(c) {
			c.Next()
			return
		}

		key := responseKey(c, cfg.Scope(c))

		if hit, err := appcache.Get[cachedResponse](c.Request.Context(), cfg.Cache, key); err == nil {
			replay(c, hit)
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer, limit: cfg.MaxBodyBytes}
		c.Writer = w
		c.Next()

		if w.overflow || w.Status() != http.StatusOK || noStore(w.Header()) {
			return
		}

		body := w.buf.Bytes()
		entry := cachedResponse{
			Status:      http.StatusOK,
			ContentType: w.Header().Get("Content-Type"),
			Body:        body,
			ETag:        `"` + strconv.FormatUint(xxhash.Sum64(body), 16) + `"`,
			StoredAt:    time.Now().UnixNano(),
		}

		ctx := context.WithoutCancel(c.Request.Context())
		if err := appcache.Set(ctx, cfg.Cache, key, entry, cfg.TTL); err != nil {
			logger.Warn().Err(err).Str("path", c.FullPath()).Msg("store response failed")
		}
	}
}

func cacheable(c *gin.Context) bool {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		return false
	}

	return c.GetHeader(bypassHeader) == ""
}

func noStore(h http.Header) bool {
	cc := strings.ToLower(h.Get("Cache-Control"))

	return strings.Contains(cc, "no-store") || strings.Contains(cc, "private")
}

// identityScope 同一路由对不同用户返回的数据不同，键里必须带上身份.
func identityScope(c *gin.Context) string {
	id, ok := GetIdentity(c)
	if !ok {
		return "anonymous"
	}

	return id.UID + "/" + string(id.Role)
}

// responseKey 由路由模板、排序后的 query 与 scope 组成，xxhash 压缩.
func responseKey(c *gin.Context, scope string) string {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}

	var b strings.Builder

	b.WriteString(route)
	b.WriteByte('|')
	b.WriteString(scope)

	q := c.Request.URL.Query()
	names := make([]string, 0, len(q))

	for k := range q {
		names = append(names, k)
	}

	slices.Sort(names)

	for _, k := range names {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.Join(q[k], ","))
	}

	return "resp:" + strconv.FormatUint(xxhash.Sum64String(b.String()), 16)
}

func replay(c *gin.Context, r cachedResponse) {
	h := c.Writer.Header()
	h.Set("ETag", r.ETag)
	h.Set("X-Cache", "HIT")
	h.Set("Age", strconv.FormatInt(int64(time.Since(time.Unix(0, r.StoredAt)).Seconds()), 10))

	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == r.ETag {
		c.AbortWithStatus(http.StatusNotModified)
		return
	}

	if r.ContentType != "" {
		h.Set("Content-Type", r.ContentType)
	}

	c.Status(r.Status)

	if c.Request.Method != http.MethodHead {
		_, _ = c.Writer.Write(r.Body)
	}

	c.Abort()
}

// captureWriter 在转发响应的同时保留一份副本，超过上限即放弃缓存.
type captureWriter struct {
	gin.ResponseWriter

	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
			w.overflow = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}

	if w.Header().Get("X-Cache") == "" && !w.Written() {
		w.Header().Set("X-Cache", "MISS")
	}

	return w.ResponseWriter.Write(b)
}
