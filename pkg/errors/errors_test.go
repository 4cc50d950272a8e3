package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		code int
		want ErrorType
	}{
		{http.StatusUnauthorized, ErrorTypeAuth},
		{http.StatusForbidden, ErrorTypeAuth},
		{http.StatusNotFound, ErrorTypeNotFound},
		{http.StatusTooManyRequests, ErrorTypeRateLimit},
		{http.StatusBadGateway, ErrorTypeServerError},
		{http.StatusTeapot, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			err := FromStatus(tt.code)
			if assert.NotNil(t, err) {
				assert.Equal(t, tt.want, err.Type)
				assert.Equal(t, tt.code, err.Code)
			}
		})
	}

	assert.Nil(t, FromStatus(http.StatusOK))
	assert.Nil(t, FromStatus(http.StatusNoContent))
}

func TestWrapUnwrap(t *testing.T) {
	err := Wrap(context.DeadlineExceeded, ErrorTypeTimeout, "request timed out")
	wrapped := fmt.Errorf("fetch page: %w", err)

	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)
	assert.Equal(t, ErrorTypeTimeout, TypeOf(wrapped))
	assert.True(t, IsTransport(wrapped))
	assert.Contains(t, err.Error(), "timeout error")
}

func TestTypeOfPlainError(t *testing.T) {
	err := fmt.Errorf("disk full")
	assert.Equal(t, ErrorTypeUnknown, TypeOf(err))
	assert.False(t, IsTransport(err))
}
