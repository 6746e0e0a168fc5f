// file: internal/server/validators.go
// version: 2.1.0
// guid: 9b0c1d2e-3f4a-5b6c-7d8e-9f0a1b2c3d4e

package server

import (
	"fmt"
	"strings"
)

// ValidationError represents a validation error with code
type ValidationError struct {
	Field   string
	Message string
	Code    string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// validateRequired rejects a value that is empty once surrounding
// whitespace is removed. There is no length limit beyond the request body
// cap.
func validateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{
			Field:   field,
			Message: field + " is required",
			Code:    strings.ToUpper(field) + "_REQUIRED",
		}
	}
	return nil
}

// ValidateTitle validates that a title is non-empty after trimming.
func ValidateTitle(title string) error {
	return validateRequired("title", title)
}

// ValidateAuthor is the author counterpart of ValidateTitle.
func ValidateAuthor(author string) error {
	return validateRequired("author", author)
}

func invalidJSONError(err error) ValidationError {
	return ValidationError{
		Field:   "body",
		Message: "request body must be a JSON object with string title and author: " + err.Error(),
		Code:    "INVALID_JSON",
	}
}
