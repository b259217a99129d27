package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-leave/internal/middleware"
	"go-leave/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestContextLogger_PropagatesRequestID(t *testing.T) {
	r := gin.New()
	r.Use(middleware.ContextLogger(zap.NewNop()))
	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen = contextutil.GetRequestID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", w.Header().Get(middleware.RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, w.Header().Get(middleware.RequestIDHeader), seen)
}

func TestRateLimitByIP(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RateLimitByIP(1, 2))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestRateLimitByIP_Disabled(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RateLimitByIP(0, 0))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func idempotentRouter(t *testing.T) (*gin.Engine, redismock.ClientMock, *int) {
	t.Helper()
	rdb, mock := redismock.NewClientMock()
	calls := 0
	r := gin.New()
	r.POST("/leaves/submit", middleware.Idempotency(rdb, time.Hour, zap.NewNop()), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})
	return r, mock, &calls
}

func post(r http.Handler, key string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/leaves/submit", strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set(middleware.IdempotencyHeader, key)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_FirstRequestIsStored(t *testing.T) {
	r, mock, calls := idempotentRouter(t)
	cacheKey := middleware.IdempotencyCacheKey("/leaves/submit", "abc")
	payload, err := json.Marshal(middleware.CachedResponse{Status: http.StatusCreated, Body: `{"ok":true}`})
	require.NoError(t, err)

	mock.ExpectGet(cacheKey).RedisNil()
	mock.ExpectSetNX(cacheKey+":lock", "1", 30*time.Second).SetVal(true)
	mock.ExpectSet(cacheKey, string(payload), time.Hour).SetVal("OK")
	mock.ExpectDel(cacheKey + ":lock").SetVal(1)

	w := post(r, "abc")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, *calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	r, mock, calls := idempotentRouter(t)
	cacheKey := middleware.IdempotencyCacheKey("/leaves/submit", "abc")
	payload, _ := json.Marshal(middleware.CachedResponse{Status: http.StatusCreated, Body: `{"ok":true,"data":{"status":"submitted"}}`})
	mock.ExpectGet(cacheKey).SetVal(string(payload))

	w := post(r, "abc")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "true", w.Header().Get(middleware.IdempotencyReplayed))
	assert.JSONEq(t, `{"ok":true,"data":{"status":"submitted"}}`, w.Body.String())
	assert.Zero(t, *calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_InFlightConflict(t *testing.T) {
	r, mock, calls := idempotentRouter(t)
	cacheKey := middleware.IdempotencyCacheKey("/leaves/submit", "abc")
	mock.ExpectGet(cacheKey).RedisNil()
	mock.ExpectSetNX(cacheKey+":lock", "1", 30*time.Second).SetVal(false)

	w := post(r, "abc")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, *calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_NoKeyPassesThrough(t *testing.T) {
	r, mock, calls := idempotentRouter(t)

	w := post(r, "")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, *calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}
