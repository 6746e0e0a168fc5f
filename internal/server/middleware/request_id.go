// file: internal/server/middleware/request_id.go
// version: 1.0.0
// guid: 0b7d0c41-6a8e-4c05-9a3e-4f1f0f5c2d67

package middleware

import (
	"github.com/gin-gonic/gin"
	ulid "github.com/oklog/ulid/v2"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	maxRequestIDLen = 128
)

// RequestID tags each request with an id, reusing a caller-supplied
// X-Request-ID when it looks sane and minting a ULID otherwise.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = ulid.Make().String()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the id set by RequestID, or "" outside that
// middleware.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
