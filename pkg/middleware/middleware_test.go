package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/cache"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/configs"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/storage/kv"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func whoami(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)
	c.JSON(http.StatusOK, id)
}

func do(t *testing.T, h http.Handler, method, target string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	return w
}

func TestAuthMiddleware(t *testing.T) {
	conf := configs.AuthConfig{
		Enabled:         true,
		JWTSecret:       "test-secret",
		JWTIssuer:       "smartmedia",
		TrustRoleHeader: false,
		AdminUsers:      []string{"ops@example.com"},
		SkipPaths:       []string{"/api/v1/health"},
	}

	r := gin.New()
	r.Use(middleware.AuthMiddleware(conf))
	r.GET("/api/v1/me", whoami)
	r.GET("/api/v1/health", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	token, err := middleware.SignToken(conf, "u-42", "u42@example.com", media.RoleUser, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	require.NoError(t, err)

	expired, err := middleware.SignToken(conf, "u-42", "", media.RoleUser, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		path     string
		header   map[string]string
		wantCode int
		wantUID  string
		wantRole media.Role
	}{
		{
			name:     "proxy header",
			path:     "/api/v1/me",
			header:   map[string]string{"X-Auth-Request-Email": "a@example.com", "X-Role": "admin"},
			wantCode: http.StatusOK,
			wantUID:  "a@example.com",
			wantRole: media.RoleUser,
		},
		{
			name:     "configured admin",
			path:     "/api/v1/me",
			header:   map[string]string{"X-Forwarded-Email": "ops@example.com"},
			wantCode: http.StatusOK,
			wantUID:  "ops@example.com",
			wantRole: media.RoleAdmin,
		},
		{
			name:     "bearer token",
			path:     "/api/v1/me",
			header:   map[string]string{"Authorization": "Bearer " + token},
			wantCode: http.StatusOK,
			wantUID:  "u-42",
			wantRole: media.RoleUser,
		},
		{
			name:     "expired token",
			path:     "/api/v1/me",
			header:   map[string]string{"Authorization": "Bearer " + expired},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "no identity",
			path:     "/api/v1/me?user=sneaky",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "skipped path",
			path:     "/api/v1/health",
			wantCode: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodGet, tt.path, tt.header)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())

			if tt.wantUID == "" {
				return
			}

			assert.Contains(t, w.Body.String(), `"uid":"`+tt.wantUID+`"`)
			assert.Contains(t, w.Body.String(), `"role":"`+string(tt.wantRole)+`"`)
		})
	}
}

func TestAuthDisabledFallsBackToQueryUser(t *testing.T) {
	r := gin.New()
	r.Use(middleware.AuthMiddleware(configs.AuthConfig{Enabled: false}))
	r.GET("/me", whoami)

	assert.Contains(t, do(t, r, http.MethodGet, "/me?user=local", nil).Body.String(), `"uid":"local"`)
	assert.Contains(t, do(t, r, http.MethodGet, "/me", nil).Body.String(), `"uid":"anonymous"`)
}

func TestRequireAdmin(t *testing.T) {
	r := gin.New()
	r.Use(middleware.AuthMiddleware(configs.AuthConfig{Enabled: true, TrustRoleHeader: true}), middleware.RequireAdmin())
	r.GET("/admin/stats", func(c *gin.Context) { c.Status(http.StatusOK) })

	user := do(t, r, http.MethodGet, "/admin/stats", map[string]string{"X-Auth-Request-User": "bob"})
	assert.Equal(t, http.StatusForbidden, user.Code)

	admin := do(t, r, http.MethodGet, "/admin/stats", map[string]string{"X-Auth-Request-User": "alice", "X-Role": "admin"})
	assert.Equal(t, http.StatusOK, admin.Code)
}

func TestRateLimitPerUser(t *testing.T) {
	r := gin.New()
	r.Use(
		middleware.AuthMiddleware(configs.AuthConfig{Enabled: true}),
		middleware.RateLimitMiddleware(configs.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 2, Key: "user"}),
	)
	r.GET("/media", func(c *gin.Context) { c.Status(http.StatusOK) })

	alice := map[string]string{"X-Auth-Request-User": "alice"}
	bob := map[string]string{"X-Auth-Request-User": "bob"}

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/media", alice).Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/media", alice).Code)

	limited := do(t, r, http.MethodGet, "/media", alice)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), "rate_limited")

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/media", bob).Code, "buckets must be per user")
}

func TestRateLimitDisabled(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RateLimitMiddleware(configs.RateLimitConfig{Enabled: false, RPS: 0.001, Burst: 1}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for range 5 {
		assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/", nil).Code)
	}
}

func TestCacheMiddlewareScopesByIdentity(t *testing.T) {
	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	var calls int

	r := gin.New()
	r.Use(middleware.AuthMiddleware(configs.AuthConfig{Enabled: true}))
	r.GET("/stats", middleware.CacheMiddleware(middleware.DefaultCacheConfig(cache.NewCache(store, cache.WithNamespace("http")))), func(c *gin.Context) {
		calls++
		id, _ := middleware.GetIdentity(c)
		c.JSON(http.StatusOK, gin.H{"uid": id.UID, "calls": calls})
	})

	alice := map[string]string{"X-Auth-Request-User": "alice"}

	first := do(t, r, http.MethodGet, "/stats", alice)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := do(t, r, http.MethodGet, "/stats", alice)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	etag := second.Header().Get("ETag")
	require.NotEmpty(t, etag)

	notModified := do(t, r, http.MethodGet, "/stats", map[string]string{"X-Auth-Request-User": "alice", "If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, notModified.Code)

	other := do(t, r, http.MethodGet, "/stats", map[string]string{"X-Auth-Request-User": "bob"})
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
	assert.Contains(t, other.Body.String(), `"uid":"bob"`)

	bypass := do(t, r, http.MethodGet, "/stats", map[string]string{"X-Auth-Request-User": "alice", "X-Cache-Bypass": "1"})
	assert.Empty(t, bypass.Header().Get("X-Cache"))
	assert.Equal(t, 3, calls)
}

func TestCircuitBreakerOpensOnServerFaults(t *testing.T) {
	cfg := configs.CircuitBreakerConfig{
		Enabled:           true,
		FailureRate:       0.5,
		MinRequests:       2,
		IntervalSeconds:   60,
		TimeoutSeconds:    30,
		MaxRequestsInHalf: 1,
	}

	status := http.StatusBadGateway

	r := gin.New()
	r.Use(middleware.CircuitBreakerMiddleware(cfg))
	r.GET("/media/:id/analyze", func(c *gin.Context) { c.Status(status) })

	// 502 来自分析器，不计入 HTTP 熔断
	for range 3 {
		assert.Equal(t, http.StatusBadGateway, do(t, r, http.MethodGet, "/media/x/analyze", nil).Code)
	}

	// 3 次成功 + 3 次 500，失败率达到 0.5
	status = http.StatusInternalServerError
	for range 3 {
		do(t, r, http.MethodGet, "/media/x/analyze", nil)
	}

	open := do(t, r, http.MethodGet, "/media/x/analyze", nil)
	assert.Equal(t, http.StatusServiceUnavailable, open.Code)
	assert.Equal(t, "30", open.Header().Get("Retry-After"))
	assert.Contains(t, open.Body.String(), "breaker_open")
}
