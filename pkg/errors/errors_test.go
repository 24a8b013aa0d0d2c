package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorFormatting(t *testing.T) {
	err := New(ErrCodeClaimNotFound, "claim not found")
	assert.Equal(t, "[CLM_001] claim not found", err.Error())

	withDetail := err.WithDetail("id=42")
	assert.Equal(t, "[CLM_001] claim not found: id=42", withDetail.Error())
	// The original is untouched.
	assert.Equal(t, "[CLM_001] claim not found", err.Error())
}

func TestNewCapturesStack(t *testing.T) {
	err := New(ErrCodeInternal, "boom")
	assert.Contains(t, err.Stack, "errors_test.go")
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeDatabaseError, "query failed"))
}

func TestWrapPreservesCauseChain(t *testing.T) {
	cause := stderrors.New("connection refused")
	wrapped := Wrap(cause, ErrCodeDatabaseError, "query failed")

	require.ErrorIs(t, wrapped, cause)
	assert.Equal(t, ErrCodeDatabaseError, wrapped.Code)
}

func TestWrapUnknownKeepsOriginalCode(t *testing.T) {
	inner := New(ErrCodeClaimNotFound, "claim not found")
	wrapped := Wrap(inner, CodeUnknown, "lookup failed")

	assert.Equal(t, ErrCodeClaimNotFound, wrapped.Code)
}

func TestIsCodeTraversesWrapping(t *testing.T) {
	inner := New(ErrCodeCacheError, "redis down")
	outer := fmt.Errorf("stats read: %w", inner)

	assert.True(t, IsCode(outer, ErrCodeCacheError))
	assert.False(t, IsCode(outer, ErrCodeDatabaseError))
	assert.False(t, IsCode(nil, ErrCodeCacheError))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(New(ErrCodeClaimNotFound, "x")))
	assert.True(t, IsNotFound(New(ErrCodeStorageObjectNotFound, "x")))
	assert.True(t, IsNotFound(NotFound("x")))
	assert.False(t, IsNotFound(New(ErrCodeDatabaseError, "x")))
	assert.False(t, IsNotFound(stderrors.New("plain")))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeValidation, GetCode(New(ErrCodeValidation, "bad input")))
	assert.Equal(t, ErrCodeEventPublishFailed,
		GetCode(fmt.Errorf("publish: %w", New(ErrCodeEventPublishFailed, "kafka down"))))
}

func TestHTTPStatusForCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatusForCode(ErrCodeClaimNotFound))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatusForCode(ErrCodeValidation))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatusForCode(ErrCodeUnauthorized))
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatusForCode(ErrCodeTooManyRequests))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusForCode(ErrorCode("NO_SUCH_CODE")))
}

func TestWithDetailNilReceiver(t *testing.T) {
	var e *AppError
	assert.Nil(t, e.WithDetail("x"))
	assert.Nil(t, e.WithCause(stderrors.New("y")))
}
