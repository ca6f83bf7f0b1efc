package jiveerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundTruncatesSuggestions(t *testing.T) {
	err := NotFound("wdgt", []string{"widget-a", "widget-b", "widget-c", "widget-d"})
	assert.Equal(t, CodeNotFound, err.Code)
	assert.Len(t, err.Suggestions, 3)
	assert.Equal(t, []string{"widget-a", "widget-b", "widget-c"}, err.Suggestions)
}

func TestValidationPopulatesFields(t *testing.T) {
	err := Validation("status", "bogus", "pending|in_progress|done", "unknown status")
	assert.Equal(t, CodeValidation, err.Code)
	assert.Equal(t, "status", err.Field)
	assert.Equal(t, "bogus", err.ProvidedValue)
	assert.Equal(t, "pending|in_progress|done", err.ExpectedFormat)
}

func TestWrapUnwrapsViaErrorsAs(t *testing.T) {
	cause := fmt.Errorf("disk full")
	wrapped := Wrap(CodeStorageError, "write failed", cause)

	var target *Error
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, CodeStorageError, target.Code)
	assert.ErrorIs(t, wrapped, cause)
}

func TestAsRejectsPlainErrors(t *testing.T) {
	_, ok := As(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(fmt.Errorf("plain")))
	assert.Equal(t, CodeValidation, CodeOf(Validation("x", nil, "", "")))
}

func TestIsRetryableOnlyStorageUnavailable(t *testing.T) {
	assert.True(t, IsRetryable(New(CodeStorageUnavail, "db locked")))
	assert.False(t, IsRetryable(New(CodeStorageError, "constraint violation")))
	assert.False(t, IsRetryable(fmt.Errorf("plain")))
}

func TestNilErrorMethodsAreSafe(t *testing.T) {
	var e *Error
	assert.Equal(t, "", e.Error())
	assert.Nil(t, e.Unwrap())
}
