package gateway

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput is returned when inputs do not satisfy the tool's
	// input schema. The concrete error is a *ValidationError carrying
	// field-level detail.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExecutionFailed is returned when an executor returns a failure,
	// returns an error, or panics. The gateway converts every executor
	// fault into this error instead of letting it escape.
	ErrExecutionFailed = errors.New("tool execution failed")
)

// FieldError describes a single schema violation.
type FieldError struct {
	// Field is a JSON pointer to the offending location, "/" for the root.
	Field string `json:"field"`

	// Message describes the violation.
	Message string `json:"message"`
}

// ValidationError aggregates field-level schema violations for one request.
// It matches ErrInvalidInput under errors.Is.
type ValidationError struct {
	Fields []FieldError
}

// Error implements error.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput.Error(), strings.Join(parts, "; "))
}

// Unwrap makes errors.Is(err, ErrInvalidInput) hold.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
