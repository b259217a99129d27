package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/contextutil"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	IdempotencyHeader   = "Idempotency-Key"
	IdempotencyReplayed = "Idempotent-Replayed"

	idempotencyLockTTL = 30 * time.Second
)

// CachedResponse is what gets replayed for a repeated Idempotency-Key.
type CachedResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

func IdempotencyCacheKey(path, key string) string {
	return fmt.Sprintf("idemp:%s:%s", path, key)
}

type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response for a POST that repeats an
// Idempotency-Key, and answers 409 while the first request is still running.
// Only 2xx responses are stored. Redis failures let the request through.
func Idempotency(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("middleware.idempotency")
	return func(c *gin.Context) {
		idempKey := c.GetHeader(IdempotencyHeader)
		if idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		reqLog := contextutil.GetLogger(ctx, log)
		cacheKey := IdempotencyCacheKey(c.FullPath(), idempKey)
		lockKey := cacheKey + ":lock"

		val, err := rdb.Get(ctx, cacheKey).Result()
		switch {
		case err == nil:
			var cached CachedResponse
			if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr == nil {
				reqLog.Info("idempotent replay", zap.String("key", idempKey), zap.Int("status", cached.Status))
				c.Header(IdempotencyReplayed, "true")
				c.Data(cached.Status, "application/json; charset=utf-8", []byte(cached.Body))
				c.Abort()
				return
			}
		case !errors.Is(err, redis.Nil):
			reqLog.Warn("idempotency lookup failed, continuing", zap.Error(err))
			c.Next()
			return
		}

		isNew, err := rdb.SetNX(ctx, lockKey, "1", idempotencyLockTTL).Result()
		if err != nil {
			reqLog.Warn("idempotency lock failed, continuing", zap.Error(err))
			c.Next()
			return
		}
		if !isNew {
			response.Abort(c, http.StatusConflict, apperror.CodeConflict, "a request with this Idempotency-Key is still being processed")
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		// the request context may already be cancelled by now
		bg := context.WithoutCancel(ctx)
		if status := rec.Status(); status >= 200 && status < 300 {
			payload, _ := json.Marshal(CachedResponse{Status: status, Body: rec.buf.String()})
			if err := rdb.Set(bg, cacheKey, string(payload), ttl).Err(); err != nil {
				reqLog.Warn("idempotency store failed", zap.Error(err))
			}
		}
		if err := rdb.Del(bg, lockKey).Err(); err != nil {
			reqLog.Warn("idempotency unlock failed", zap.Error(err))
		}
	}
}
