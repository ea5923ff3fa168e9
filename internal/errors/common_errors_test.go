package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{name: "malformed input", errType: ErrTypeMalformedInput, expected: "MALFORMED_INPUT"},
		{name: "missing field", errType: ErrTypeMissingField, expected: "MISSING_FIELD"},
		{name: "unknown layout", errType: ErrTypeUnknownLayout, expected: "UNKNOWN_LAYOUT"},
		{name: "template", errType: ErrTypeTemplate, expected: "TEMPLATE"},
		{name: "storage", errType: ErrTypeStorage, expected: "STORAGE"},
		{name: "validation", errType: ErrTypeValidation, expected: "VALIDATION"},
		{name: "config", errType: ErrTypeConfig, expected: "CONFIG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "message only",
			err:      NewTemplateError("template has no slide master", nil),
			expected: "[TEMPLATE] template has no slide master",
		},
		{
			name:     "with cause",
			err:      NewStorageError("failed to save", fmt.Errorf("disk full")),
			expected: "[STORAGE] failed to save: disk full",
		},
		{
			name:     "with sorted context",
			err:      NewMissingFieldError(4, "date"),
			expected: `[MISSING_FIELD] required column "date" is missing (column=date, row=4)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("strconv: invalid syntax")
	err := NewMalformedInputError(2, "part", "two", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestAppError_Is(t *testing.T) {
	err := fmt.Errorf("run failed: %w", NewUnknownLayoutError(7, 2))

	assert.True(t, errors.Is(err, &AppError{Type: ErrTypeUnknownLayout}))
	assert.False(t, errors.Is(err, &AppError{Type: ErrTypeMalformedInput}))
}

func TestIsType(t *testing.T) {
	inner := NewMalformedInputError(1, "index", "x", nil)
	outer := NewValidationError("preprocess failed", inner)

	assert.True(t, IsType(outer, ErrTypeValidation))
	assert.True(t, IsType(outer, ErrTypeMalformedInput))
	assert.False(t, IsType(outer, ErrTypeStorage))
	assert.False(t, IsType(errors.New("plain"), ErrTypeStorage))
	assert.False(t, IsType(nil, ErrTypeStorage))
}

func TestHelpers_Context(t *testing.T) {
	t.Run("malformed input", func(t *testing.T) {
		err := NewMalformedInputError(5, "part", "two", nil)
		assert.Equal(t, ErrTypeMalformedInput, err.Type)
		assert.Equal(t, 5, err.Context[ContextRow])
		assert.Equal(t, "part", err.Context[ContextColumn])
		assert.Equal(t, "two", err.Context[ContextValue])
	})

	t.Run("unknown layout", func(t *testing.T) {
		err := NewUnknownLayoutError(9, 3).WithContext(ContextRow, 2)
		assert.Equal(t, ErrTypeUnknownLayout, err.Type)
		assert.Equal(t, 2, err.Context[ContextRow])
		assert.Equal(t, 9, err.Context[ContextLayoutIndex])
		assert.Contains(t, err.Message, "defines 3 layouts")
	})

	t.Run("with context on nil map", func(t *testing.T) {
		err := &AppError{Type: ErrTypeConfig, Message: "bad"}
		err.WithContext(ContextPath, "config.yaml")
		require.NotNil(t, err.Context)
		assert.Equal(t, "config.yaml", err.Context[ContextPath])
	})
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewConfigError("bad org", nil))

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrTypeConfig, appErr.Type)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestAppError_LogAttrs(t *testing.T) {
	err := NewMissingFieldError(1, "title")
	attrs := err.LogAttrs()

	require.Len(t, attrs, 8)
	assert.Equal(t, "error_type", attrs[0])
	assert.Equal(t, "MISSING_FIELD", attrs[1])
}
