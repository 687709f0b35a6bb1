package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"coach-center/config"
	"coach-center/pkg/jwt"
	"coach-center/pkg/redis"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJWTManager() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{JWTSecret: "test-secret-0123456789", Issuer: "coach-center"})
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return redis.NewFromClient(rdb, zap.NewNop())
}

// ── JWTAuth ──

func TestJWTAuth_InjectsActor(t *testing.T) {
	mgr := newJWTManager()
	token, err := mgr.Issue("actor-42", "Front Desk", "staff", time.Minute)
	require.NoError(t, err)

	var actor string
	r := gin.New()
	r.GET("/x", JWTAuth(mgr), func(c *gin.Context) {
		actor = c.GetString("user_id")
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "actor-42", actor)
}

func TestJWTAuth_Rejects(t *testing.T) {
	mgr := newJWTManager()
	expired, err := mgr.Issue("actor-42", "", "", -time.Minute)
	require.NoError(t, err)
	foreign, err := jwt.NewManager(&config.AuthConfig{JWTSecret: "another-secret-abcdef", Issuer: "coach-center"}).
		Issue("actor-42", "", "", time.Minute)
	require.NoError(t, err)

	cases := map[string]string{
		"缺少认证头": "",
		"格式错误":  "Token abc",
		"已过期":   "Bearer " + expired,
		"签名不匹配": "Bearer " + foreign,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			called := false
			r := gin.New()
			r.GET("/x", JWTAuth(mgr), func(c *gin.Context) { called = true })

			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/x", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, called, "认证失败时不应进入后续处理")
		})
	}
}

// ── RateLimit ──

func TestRateLimit_BlocksWritesOverLimit(t *testing.T) {
	rdb := newRedis(t)

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", "actor-1"); c.Next() })
	r.Use(RateLimit(rdb, 2, time.Minute))
	r.POST("/attendance", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/attendance", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/attendance", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// 读请求不限流
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/attendance", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_NilRedisFailsOpen(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(nil, 1, time.Minute))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/x", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

// ── RequestID ──

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/x", nil))
	generated := w.Header().Get("X-Request-ID")
	assert.Len(t, generated, 26, "缺省时应生成 ULID")
	assert.Equal(t, generated, w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("X-Request-ID", "upstream-1")
	r.ServeHTTP(w, req)
	assert.Equal(t, "upstream-1", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("a", requestIDMaxLen+1))
	r.ServeHTTP(w, req)
	assert.Len(t, w.Header().Get("X-Request-ID"), 26, "超长 ID 应被替换")
}

// ── BodyLimit ──

func TestBodyLimit_RejectsDeclaredOversize(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(8))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/x", strings.NewReader(strings.Repeat("x", 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/x", strings.NewReader("ok")))
	assert.Equal(t, http.StatusOK, w.Code)
}

// ── CORS ──

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173/"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
