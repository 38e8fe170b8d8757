package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NotFound("visit", nil), http.StatusNotFound},
		{BadRequest("bad date", nil), http.StatusBadRequest},
		{Unauthorized(nil), http.StatusUnauthorized},
		{Forbidden("not your visit"), http.StatusForbidden},
		{InsuranceInvalid("pay first"), http.StatusUnprocessableEntity},
		{SlotUnavailable(nil), http.StatusConflict},
		{InvalidTransition("COMPLETED", "CANCELLED"), http.StatusConflict},
		{ConcurrentModification("patient", nil), http.StatusConflict},
		{Duplicate("egn taken", nil), http.StatusConflict},
		{InUse("doctor", nil), http.StatusConflict},
		{RateLimited(), http.StatusTooManyRequests},
		{Internal(errors.New("db down")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.HTTPStatus(), tt.err.Message)
	}
}

func TestIsAndUnwrap(t *testing.T) {
	cause := errors.New("duplicate key")
	err := fmt.Errorf("create visit: %w", SlotUnavailable(cause))

	assert.True(t, Is(err, ErrSlotUnavailable))
	assert.False(t, Is(err, ErrNotFound))
	assert.False(t, Is(cause, ErrSlotUnavailable))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "cannot move visit from COMPLETED to CANCELLED", InvalidTransition("COMPLETED", "CANCELLED").Error())
	assert.Equal(t, "patient not found: gone", NotFound("patient", errors.New("gone")).Error())
}
