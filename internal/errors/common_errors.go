package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeMalformedInput ErrorType = "MALFORMED_INPUT"
	ErrTypeMissingField   ErrorType = "MISSING_FIELD"
	ErrTypeUnknownLayout  ErrorType = "UNKNOWN_LAYOUT"
	ErrTypeTemplate       ErrorType = "TEMPLATE"
	ErrTypeStorage        ErrorType = "STORAGE"
	ErrTypeValidation     ErrorType = "VALIDATION"
	ErrTypeConfig         ErrorType = "CONFIG"
)

// Context keys used to locate the offending record.
const (
	ContextRow         = "row"
	ContextColumn      = "column"
	ContextValue       = "value"
	ContextLayoutIndex = "layout_index"
	ContextPath        = "path"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Type, e.Message)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports a match when target is an AppError of the same type with no message.
// This lets callers write errors.Is(err, &AppError{Type: ErrTypeUnknownLayout}).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type && (t.Message == "" || t.Message == e.Message)
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// LogAttrs flattens the error for structured logging.
func (e *AppError) LogAttrs() []any {
	attrs := []any{"error_type", string(e.Type), "error", e.Error()}
	for k, v := range e.Context {
		attrs = append(attrs, k, v)
	}
	return attrs
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// IsType reports whether any error in err's chain is an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	for {
		if appErr.Type == errType {
			return true
		}
		next := appErr.Cause
		appErr = nil
		if next == nil || !errors.As(next, &appErr) {
			return false
		}
	}
}

// As is a convenience wrapper around errors.As for AppError.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// Helper functions for common error types

// NewMalformedInputError reports a cell whose value cannot be coerced.
func NewMalformedInputError(row int, column, value string, cause error) *AppError {
	return NewAppError(ErrTypeMalformedInput, fmt.Sprintf("malformed value in column %q", column), cause).
		WithContext(ContextRow, row).
		WithContext(ContextColumn, column).
		WithContext(ContextValue, value)
}

// NewMissingFieldError reports an absent required value.
func NewMissingFieldError(row int, column string) *AppError {
	return NewAppError(ErrTypeMissingField, fmt.Sprintf("required column %q is missing", column), nil).
		WithContext(ContextRow, row).
		WithContext(ContextColumn, column)
}

// NewUnknownLayoutError reports a layout index the template does not define.
// Callers that know the row add it with WithContext(ContextRow, ...).
func NewUnknownLayoutError(layoutIndex, available int) *AppError {
	return NewAppError(ErrTypeUnknownLayout,
		fmt.Sprintf("layout %d not found, template defines %d layouts", layoutIndex, available), nil).
		WithContext(ContextLayoutIndex, layoutIndex)
}

// NewTemplateError creates a template-related error
func NewTemplateError(message string, cause error) *AppError {
	return NewAppError(ErrTypeTemplate, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewValidationError creates a validation error
func NewValidationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeValidation, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
