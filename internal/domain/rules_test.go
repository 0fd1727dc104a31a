package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingRules_ValidateDuration(t *testing.T) {
	r := DefaultBookingRules()
	for _, ok := range []int{30, 60, 90, 240} {
		assert.NoError(t, r.ValidateDuration(ok), ok)
	}
	for _, bad := range []int{0, 15, 45, 270, -30} {
		assert.ErrorIs(t, r.ValidateDuration(bad), ErrValidation, bad)
	}
}

func TestBookingRules_ValidateStart(t *testing.T) {
	r := DefaultBookingRules()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.NoError(t, r.ValidateStart(now, now.Add(time.Minute)))
	assert.NoError(t, r.ValidateStart(now, now.Add(7*24*time.Hour)))
	assert.ErrorIs(t, r.ValidateStart(now, now), ErrValidation)
	assert.ErrorIs(t, r.ValidateStart(now, now.Add(-time.Hour)), ErrValidation)
	assert.ErrorIs(t, r.ValidateStart(now, now.Add(7*24*time.Hour+time.Second)), ErrValidation)
}

func TestBookingRules_CheckModifiable(t *testing.T) {
	r := DefaultBookingRules()
	start := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	b := &Booking{ReservationDateTime: start}

	assert.NoError(t, r.CheckModifiable(start.Add(-13*time.Hour), b))
	assert.ErrorIs(t, r.CheckModifiable(start.Add(-12*time.Hour), b), ErrTooLateToModify)
	assert.ErrorIs(t, r.CheckModifiable(start.Add(-11*time.Hour), b), ErrTooLateToModify)
}
