// file: internal/server/middleware/ratelimit_test.go
// version: 1.1.0
// guid: b31f3de0-b0bc-4cbf-8448-7309df38f7c0

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNewIPRateLimiter_Defaults(t *testing.T) {
	t.Parallel()

	limiter := NewIPRateLimiter(0, 0)
	assert.Equal(t, 1, limiter.requestsPerMin)
	assert.Equal(t, 1, limiter.burst)
}

func limitedRouter(limiter *IPRateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(limiter.Middleware())
	router.POST("/book", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func postFrom(router http.Handler, addr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/book", nil)
	req.RemoteAddr = addr
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestIPRateLimiter_Middleware(t *testing.T) {
	t.Parallel()

	router := limitedRouter(NewIPRateLimiter(1, 1))

	assert.Equal(t, http.StatusOK, postFrom(router, "192.0.2.1:1234").Code)

	resp2 := postFrom(router, "192.0.2.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, resp2.Code)
	assert.Contains(t, resp2.Body.String(), "rate limit exceeded")

	// Different IP should have its own bucket.
	assert.Equal(t, http.StatusOK, postFrom(router, "198.51.100.3:4321").Code)
}

func TestIPRateLimiter_SetLimitResetsBuckets(t *testing.T) {
	t.Parallel()

	limiter := NewIPRateLimiter(1, 1)
	router := limitedRouter(limiter)

	assert.Equal(t, http.StatusOK, postFrom(router, "192.0.2.9:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, postFrom(router, "192.0.2.9:1").Code)

	limiter.SetLimit(60, 3)
	assert.Equal(t, 60, limiter.requestsPerMin)
	assert.Equal(t, http.StatusOK, postFrom(router, "192.0.2.9:1").Code)
	assert.Equal(t, http.StatusOK, postFrom(router, "192.0.2.9:1").Code)
}
