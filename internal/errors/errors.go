// Package errors provides a structured error type (BookError) for
// category-based classification across the build pipeline and CLI.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a bookbuilder error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Content tree errors
	CategoryContent   ErrorCategory = "content"
	CategoryConflict  ErrorCategory = "conflict"
	CategoryReference ErrorCategory = "reference"

	// Build and processing errors
	CategoryRender     ErrorCategory = "render"
	CategoryTheme      ErrorCategory = "theme"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops the build
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Build continues, result degraded
)

// BookError is a structured error with category, severity, and context
type BookError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for BookError
type ContextFields map[string]any

// Error implements the error interface
func (e *BookError) Error() string {
	msg := e.Message
	if path, ok := e.Context["path"].(string); ok && path != "" {
		msg = fmt.Sprintf("%s: %s", e.Message, path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, msg, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, msg)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *BookError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *BookError) WithContext(key string, value any) *BookError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// Path returns the offending file path, if the error carries one.
func (e *BookError) Path() string {
	if p, ok := e.Context["path"].(string); ok {
		return p
	}
	return ""
}

// New creates a new BookError
func New(category ErrorCategory, severity ErrorSeverity, message string) *BookError {
	return &BookError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new BookError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *BookError {
	return &BookError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// AsBookError extracts a BookError from anywhere in err's chain. Callers get
// the structured error even when pipeline layers have wrapped it.
func AsBookError(err error) (*BookError, bool) {
	var be *BookError
	if stderrors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if be, ok := AsBookError(err); ok {
		return be.Category == category
	}
	return false
}

// IsFatal reports whether an error should abort the build.
func IsFatal(err error) bool {
	if be, ok := AsBookError(err); ok {
		return be.Severity == SeverityFatal
	}
	return err != nil
}
