// file: internal/server/logger_test.go
// version: 2.1.0
// guid: 2e3f4a5b-6c7d-8e9f-0a1b-2c3d4e5f6a7b

package server

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })
	return &buf
}

func TestNewOperationLogger(t *testing.T) {
	logger := NewOperationLogger("updateBook", "POST", "/book", "req-123")

	if logger.handler != "updateBook" {
		t.Errorf("expected handler 'updateBook', got %q", logger.handler)
	}
	if logger.method != "POST" {
		t.Errorf("expected method 'POST', got %q", logger.method)
	}
	if logger.requestID != "req-123" {
		t.Errorf("expected requestID 'req-123', got %q", logger.requestID)
	}
}

func TestOperationLogger_Output(t *testing.T) {
	buf := captureLog(t)

	logger := NewOperationLogger("updateBook", "POST", "/book", "req-9")
	logger.AddDetail("title", "Beloved")
	logger.LogSuccess(200)
	logger.LogError(500, errors.New("disk full"))

	out := buf.String()
	for _, want := range []string{
		"[INFO] [SUCCESS] POST /book (200)",
		"map[title:Beloved]",
		"[ERROR] POST /book (500)",
		"disk full",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLogValidationError(t *testing.T) {
	buf := captureLog(t)
	LogValidationError("updateBook", "title", "title is required", "req-1")
	if !strings.Contains(buf.String(), `[VALIDATION-ERROR] updateBook field "title": title is required [request-id: req-1]`) {
		t.Errorf("unexpected log output %q", buf.String())
	}
}
