// file: internal/server/logger.go
// version: 2.1.0
// guid: 1d2e3f4a-5b6c-7d8e-9f0a-1b2c3d4e5f6a

package server

import (
	"fmt"
	"log"
	"time"
)

// OperationLogger tracks the lifecycle of a handler operation
type OperationLogger struct {
	handler   string
	method    string
	path      string
	startTime time.Time
	requestID string
	details   map[string]any
}

// NewOperationLogger creates a new operation logger
func NewOperationLogger(handler, method, path, requestID string) *OperationLogger {
	return &OperationLogger{
		handler:   handler,
		method:    method,
		path:      path,
		startTime: time.Now(),
		requestID: requestID,
		details:   make(map[string]any),
	}
}

// AddDetail adds a contextual detail to the operation log
func (ol *OperationLogger) AddDetail(key string, value any) {
	ol.details[key] = value
}

func (ol *OperationLogger) detailSuffix() string {
	if len(ol.details) == 0 {
		return ""
	}
	return fmt.Sprintf(" %v", ol.details)
}

// LogSuccess logs the successful completion of the operation
func (ol *OperationLogger) LogSuccess(statusCode int) {
	duration := time.Since(ol.startTime)
	log.Printf("[INFO] [SUCCESS] %s %s (%d) in %v%s [request-id: %s]",
		ol.method, ol.path, statusCode, duration, ol.detailSuffix(), ol.requestID)
}

// LogError logs an error that occurred during the operation
func (ol *OperationLogger) LogError(statusCode int, err error) {
	duration := time.Since(ol.startTime)
	log.Printf("[ERROR] %s %s (%d) in %v: %v%s [request-id: %s]",
		ol.method, ol.path, statusCode, duration, err, ol.detailSuffix(), ol.requestID)
}

// LogValidationError logs a validation error with context
func LogValidationError(handler string, field string, reason string, requestID string) {
	log.Printf("[VALIDATION-ERROR] %s field %q: %s [request-id: %s]",
		handler, field, reason, requestID)
}
