package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors_StatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
		wantCode int
	}{
		{"validation", NewValidationError("bad", nil), ErrorTypeValidation, http.StatusBadRequest},
		{"network", NewNetworkError("down", nil), ErrorTypeNetwork, http.StatusBadGateway},
		{"decode", NewDecodeError("garbage", nil), ErrorTypeDecode, http.StatusUnprocessableEntity},
		{"too large", NewTooLargeError("huge", nil), ErrorTypeTooLarge, http.StatusRequestEntityTooLarge},
		{"timeout", NewTimeoutError("slow", nil), ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"not found", NewNotFoundError("gone", nil), ErrorTypeNotFound, http.StatusNotFound},
		{"internal", NewInternalError("oops", nil), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantCode, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, GetStatusCode(tt.err))
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("unexpected EOF")
	err := NewDecodeError("failed to decode image", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "decode: failed to decode image")
	assert.Contains(t, err.Error(), "unexpected EOF")
}

func TestIsType_WrappedChain(t *testing.T) {
	inner := NewDecodeError("not an image", nil)
	outer := NewNetworkError("failed to fetch image", inner)
	wrapped := fmt.Errorf("inspect: %w", outer)

	assert.True(t, IsType(wrapped, ErrorTypeNetwork))
	assert.True(t, IsType(wrapped, ErrorTypeDecode))
	assert.False(t, IsType(wrapped, ErrorTypeTimeout))
	assert.False(t, IsType(stderrors.New("plain"), ErrorTypeDecode))
	assert.Equal(t, http.StatusBadGateway, GetStatusCode(wrapped))
}

func TestGetStatusCode_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetStatusCode(stderrors.New("plain")))
}

func TestWithDetails_DoesNotMutate(t *testing.T) {
	base := NewValidationError("invalid", nil)
	detailed := base.WithDetails("field url")

	assert.Empty(t, base.Details)
	assert.Equal(t, "field url", detailed.Details)
}
