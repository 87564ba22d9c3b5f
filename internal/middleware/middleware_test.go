package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/cache"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "middleware-test-secret"

func token(t *testing.T, userID string, roles ...string) string {
	t.Helper()
	tok, err := IssueToken(secret, "test", JWTClaims{UserID: userID, Roles: roles}, time.Hour)
	require.NoError(t, err)
	return tok
}

func do(r http.Handler, method, path, tok string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	return r
}

func TestJWTAuth(t *testing.T) {
	r := newRouter()
	r.GET("/me", JWTAuth(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "").Code)

	forged, err := IssueToken("other-secret", "test", JWTClaims{UserID: "u1"}, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", forged).Code)

	expired, err := IssueToken(secret, "test", JWTClaims{UserID: "u1"}, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", expired).Code)

	w := do(r, http.MethodGet, "/me", token(t, "u1"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"u1"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	// event streams pass the token as a query parameter
	w = do(r, http.MethodGet, "/me?token="+token(t, "u2"), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"u2"`)
}

func TestRequireRole(t *testing.T) {
	r := newRouter()
	r.POST("/stock", JWTAuth(secret), RequireRole(RoleRawMaterial, RoleInventory), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	cases := []struct {
		name  string
		roles []string
		want  int
	}{
		{"admin passes every check", []string{RoleAdmin}, http.StatusNoContent},
		{"first listed role", []string{RoleRawMaterial}, http.StatusNoContent},
		{"second listed role", []string{RoleOrders, RoleInventory}, http.StatusNoContent},
		{"other department", []string{RoleProduction}, http.StatusForbidden},
		{"no roles", nil, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/stock", token(t, "u1", tc.roles...))
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newRouter()
	r.Use(CORS())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, http.MethodOptions, "/x", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), IdempotencyHeader)
}

func idempotentRouter(store cache.Store, handler gin.HandlerFunc) *gin.Engine {
	r := newRouter()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "u1")
		c.Next()
	})
	r.Use(Idempotency(store, time.Hour, zap.NewNop()))
	r.POST("/orders", handler)
	r.PUT("/orders", handler)
	return r
}

func TestIdempotencyReplaysSuccess(t *testing.T) {
	var calls int32
	r := idempotentRouter(cache.NewMemoryStore(), func(c *gin.Context) {
		n := atomic.AddInt32(&calls, 1)
		c.JSON(http.StatusOK, gin.H{"call": n})
	})

	first := do(r, http.MethodPost, "/orders", "", IdempotencyHeader, "k1")
	second := do(r, http.MethodPost, "/orders", "", IdempotencyHeader, "k1")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	do(r, http.MethodPost, "/orders", "", IdempotencyHeader, "k2")
	do(r, http.MethodPost, "/orders", "")
	do(r, http.MethodPut, "/orders", "", IdempotencyHeader, "k1")
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestIdempotencyReleasesFailures(t *testing.T) {
	var calls int32
	r := idempotentRouter(cache.NewMemoryStore(), func(c *gin.Context) {
		if atomic.AddInt32(&calls, 1) == 1 {
			c.JSON(http.StatusBadRequest, gin.H{"code": 10004})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0})
	})

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/orders", "", IdempotencyHeader, "k1").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/orders", "", IdempotencyHeader, "k1").Code)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyReleasesAfterPanic(t *testing.T) {
	var calls int32
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "u1")
		c.Next()
	})
	r.Use(Idempotency(cache.NewMemoryStore(), time.Hour, zap.NewNop()))
	r.POST("/orders", func(c *gin.Context) {
		if atomic.AddInt32(&calls, 1) == 1 {
			panic("stock service crashed")
		}
		c.JSON(http.StatusOK, gin.H{"code": 0})
	})

	assert.Equal(t, http.StatusInternalServerError, do(r, http.MethodPost, "/orders", "", IdempotencyHeader, "k1").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/orders", "", IdempotencyHeader, "k1").Code)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyConflictWhileInFlight(t *testing.T) {
	store := cache.NewMemoryStore()
	entered := make(chan struct{})
	release := make(chan struct{})
	r := idempotentRouter(store, func(c *gin.Context) {
		close(entered)
		<-release
		c.JSON(http.StatusOK, gin.H{"code": 0})
	})

	done := make(chan *httptest.ResponseRecorder)
	go func() {
		done <- do(r, http.MethodPost, "/orders", "", IdempotencyHeader, "slow")
	}()
	<-entered

	w := do(r, http.MethodPost, "/orders", "", IdempotencyHeader, "slow")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "10005")

	close(release)
	assert.Equal(t, http.StatusOK, (<-done).Code)
}
