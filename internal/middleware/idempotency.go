package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/cache"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const IdempotencyHeader = "Idempotency-Key"

// storedResponse is what a key maps to. Pending marks a request still in
// flight.
type storedResponse struct {
	Pending     bool   `json:"pending,omitempty"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the first successful response of a POST carrying an
// Idempotency-Key header. A repeat that arrives while the first is still
// running gets 409. Failed requests release their key so the client can
// retry with it.
func Idempotency(store cache.Store, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
		if key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		cacheKey := "erp:idem:" + c.GetString("user_id") + ":" + c.FullPath() + ":" + key

		if replay(c, store, cacheKey) {
			return
		}
		pending, _ := json.Marshal(storedResponse{Pending: true})
		ok, err := store.SetNX(ctx, cacheKey, pending, ttl)
		if err != nil {
			logger.Warn("idempotency store unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			if !replay(c, store, cacheKey) {
				inFlight(c)
			}
			return
		}

		saveCtx := context.WithoutCancel(ctx)
		saved := false
		// runs on panic too, so a crashed handler never pins the key
		defer func() {
			if saved {
				return
			}
			if err := store.Del(saveCtx, cacheKey); err != nil {
				logger.Warn("release idempotency key", zap.String("key", key), zap.Error(err))
			}
		}()

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		status := rec.Status()
		if status < 200 || status >= 300 {
			return
		}
		resp := storedResponse{Status: status, ContentType: rec.Header().Get("Content-Type"), Body: rec.body.Bytes()}
		if err := cache.SetJSON(saveCtx, store, cacheKey, resp, ttl); err != nil {
			logger.Warn("save idempotent response", zap.String("key", key), zap.Error(err))
			return
		}
		saved = true
	}
}

// replay writes the stored response for cacheKey and reports whether the
// request has been answered.
func replay(c *gin.Context, store cache.Store, cacheKey string) bool {
	var stored storedResponse
	err := cache.GetJSON(c.Request.Context(), store, cacheKey, &stored)
	if err != nil {
		return false
	}
	if stored.Pending {
		inFlight(c)
		return true
	}
	c.Header("Idempotent-Replayed", "true")
	c.Data(stored.Status, stored.ContentType, stored.Body)
	c.Abort()
	return true
}

func inFlight(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusConflict, gin.H{
		"code":    10005,
		"message": "a request with this Idempotency-Key is still being processed",
	})
}
