// Package core holds the error model shared by the locator, device and transport layers.
package core

import (
	"errors"
	"fmt"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: parse_error, element_not_found, ...
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is matches any ExecutionError carrying the same code, so copies made with
// WithCause/WithMessage/WithDetails still match the predefined errors.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	// Locator errors
	ErrParse = &ExecutionError{
		Category: ErrCategoryParse,
		Code:     "parse_error",
		Message:  "failed to parse hierarchy",
	}
	ErrNotFound = &ExecutionError{
		Category: ErrCategoryNotFound,
		Code:     "element_not_found",
		Message:  "no element found at this position",
	}
	ErrInvalidInput = &ExecutionError{
		Category: ErrCategoryInput,
		Code:     "invalid_input",
		Message:  "invalid coordinates",
	}

	// Device errors
	ErrADBUnavailable = &ExecutionError{
		Category: ErrCategoryDevice,
		Code:     "adb_unavailable",
		Message:  "adb is not available; install Android SDK platform tools and add adb to PATH",
	}
	ErrNoDevice = &ExecutionError{
		Category: ErrCategoryDevice,
		Code:     "no_device",
		Message:  "no connected device",
	}
	ErrDumpFailed = &ExecutionError{
		Category: ErrCategoryDevice,
		Code:     "dump_failed",
		Message:  "failed to dump UI hierarchy",
	}
	ErrScreenshotFailed = &ExecutionError{
		Category: ErrCategoryDevice,
		Code:     "screenshot_failed",
		Message:  "failed to capture screenshot",
	}

	// Config errors
	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
)

// CategoryOf returns the category of the first ExecutionError in err's chain,
// or ErrCategoryNone when there is none.
func CategoryOf(err error) ErrorCategory {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Category
	}
	return ErrCategoryNone
}
