// file: internal/server/middleware/request_size.go
// version: 1.1.0
// guid: f2129ae7-cf11-4888-bd4f-ab4b578f8f18

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultJSONBodyLimit caps update payloads; a title/author pair is tiny.
const DefaultJSONBodyLimit int64 = 64 << 10

func methodHasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

// MaxRequestBodySize rejects declared oversize bodies up front and wraps
// the rest in a MaxBytesReader so chunked uploads fail on read.
func MaxRequestBodySize(limit int64) gin.HandlerFunc {
	if limit < 1 {
		limit = DefaultJSONBodyLimit
	}

	return func(c *gin.Context) {
		if !methodHasBody(c.Request.Method) {
			c.Next()
			return
		}

		if c.Request.ContentLength > limit {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
