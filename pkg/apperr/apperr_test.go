package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", fmt.Errorf("%w: unknown scan type", ErrValidation), http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("lifecycle.Scan: %w", fmt.Errorf("%w: qr code", ErrNotFound)), http.StatusNotFound},
		{"conflict", ErrConcurrencyConflict, http.StatusConflict},
		{"capacity", ErrCapacityExhausted, http.StatusUnprocessableEntity},
		{"unauthenticated", ErrUnauthenticated, http.StatusUnauthorized},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(fmt.Errorf("store: %w", ErrConcurrencyConflict)))
	assert.False(t, Retryable(ErrNotFound))
}
