package apperr

import (
	"errors"
	"net/http"
)

// Sentinel errors shared by every layer. Wrap them with fmt.Errorf("%w: ...")
// so callers can classify with errors.Is.
var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrCapacityExhausted   = errors.New("no capacity before due date")
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
	ErrUnauthenticated     = errors.New("unauthenticated")
)

// StatusCode maps an error to the HTTP status a handler should answer with.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConcurrencyConflict):
		return http.StatusConflict
	case errors.Is(err, ErrCapacityExhausted):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether repeating the whole operation may succeed.
func Retryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}
