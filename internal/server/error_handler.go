// file: internal/server/error_handler.go
// version: 2.1.0
// guid: 5d6e7f8a-9b0c-1d2e-3f4a-5b6c7d8e9f0a

package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

// RespondWithError sends a standardized error response and logs the error
func RespondWithError(c *gin.Context, statusCode int, message string, code string) {
	logErrorWithContext(c, statusCode, message)
	c.JSON(statusCode, ErrorResponse{Error: message, Code: code})
}

// RespondWithValidationError sends a 400 for a ValidationError, keeping its
// field and code. Callers log the failure with LogValidationError.
func RespondWithValidationError(c *gin.Context, ve ValidationError) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: ve.Message,
		Code:  ve.Code,
		Field: ve.Field,
	})
}

// RespondWithInternalError sends a 500 Internal Server Error response
func RespondWithInternalError(c *gin.Context, message string) {
	RespondWithError(c, http.StatusInternalServerError, message, "INTERNAL_ERROR")
}

// logErrorWithContext logs an error with request context for debugging
func logErrorWithContext(c *gin.Context, statusCode int, message string) {
	logLevel := "WARN"
	if statusCode >= 500 {
		logLevel = "ERROR"
	}
	log.Printf("[%s] %s %s %d - %s (from %s)", logLevel, c.Request.Method, c.Request.URL.Path, statusCode, message, c.ClientIP())
}
