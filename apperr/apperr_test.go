package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusAndMessage(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{NotFound("Ride not found"), http.StatusNotFound, "Ride not found"},
		{Forbidden("Not authorized"), http.StatusForbidden, "Not authorized"},
		{InvalidState("Booking is not pending"), http.StatusBadRequest, "Booking is not pending"},
		{Validation("Only %d seat(s) available", 2), http.StatusBadRequest, "Only 2 seat(s) available"},
		{Conflict("duplicate"), http.StatusConflict, "duplicate"},
		{Unauthenticated("Invalid credentials"), http.StatusUnauthorized, "Invalid credentials"},
		{Internal(errors.New("pq: boom"), "Failed to create ride"), http.StatusInternalServerError, "Failed to create ride"},
		{errors.New("raw"), http.StatusInternalServerError, "Server error"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, Status(tc.err), tc.msg)
		assert.Equal(t, tc.msg, Message(tc.err))
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("tx: %w", Internal(cause, "Failed"))

	assert.True(t, Is(err, KindInternal))
	assert.False(t, Is(nil, KindInternal))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("wrap: %w", Conflict("taken"))))
}
