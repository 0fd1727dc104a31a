package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() StationConfig {
	return StationConfig{
		Name:         "Colombo Fort",
		Type:         StationTypeDC,
		TotalSockets: 2,
		SlotsPerDay:  24,
	}
}

func TestStationConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *StationConfig)
		wantErr bool
	}{
		{"defaults are valid", func(c *StationConfig) {}, false},
		{"zero sockets", func(c *StationConfig) { c.TotalSockets = 0 }, true},
		{"too many slots", func(c *StationConfig) { c.SlotsPerDay = 49 }, true},
		{"no slots", func(c *StationConfig) { c.SlotsPerDay = 0 }, true},
		{"empty name", func(c *StationConfig) { c.Name = "  " }, true},
		{"unknown type", func(c *StationConfig) { c.Type = "HV" }, true},
		{"closed before open", func(c *StationConfig) { c.OpenTime, c.CloseTime = "18:00", "08:00" }, true},
		{"indivisible window", func(c *StationConfig) { c.OpenTime, c.CloseTime, c.SlotsPerDay = "08:00", "09:00", 7 }, true},
		{"slots shorter than five minutes", func(c *StationConfig) { c.OpenTime, c.CloseTime, c.SlotsPerDay = "08:00", "09:00", 20 }, true},
		{"bad timezone", func(c *StationConfig) { c.Timezone = "Mars/Olympus" }, true},
		{"lower case type", func(c *StationConfig) { c.Type = "ac" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			c.Normalize()

			err := c.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestStation_SlotLength(t *testing.T) {
	c := validConfig()
	c.Normalize()
	s := &Station{}
	s.Apply(c)
	assert.Equal(t, time.Hour, s.SlotLength())

	s.OpenTime, s.CloseTime, s.SlotsPerDay = "08:00", "20:00", 48
	assert.Equal(t, 15*time.Minute, s.SlotLength())
}

func TestStation_IsOperatedBy(t *testing.T) {
	op := uuid.New()
	s := &Station{}
	assert.False(t, s.IsOperatedBy(op.String()))

	s.OperatorID = &op
	assert.True(t, s.IsOperatedBy(op.String()))
	assert.False(t, s.IsOperatedBy(uuid.NewString()))
}

func TestSlotID_Deterministic(t *testing.T) {
	station := uuid.New()
	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	a := SlotID(station, 1, start)
	b := SlotID(station, 1, start.In(time.FixedZone("IST", 19800)))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, SlotID(station, 2, start))
	assert.NotEqual(t, a, SlotID(station, 1, start.Add(time.Hour)))
}

func TestBookingStatus_Transitions(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusApproved))
	assert.True(t, StatusPending.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusApproved.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusApproved.CanTransitionTo(StatusCancelled))

	assert.False(t, StatusPending.CanTransitionTo(StatusCompleted))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusPending))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusApproved))
}

func TestNewBookingReference(t *testing.T) {
	ref := NewBookingReference(time.Date(2025, 7, 4, 23, 0, 0, 0, time.UTC))
	require.Len(t, ref, len("EV-20250704-XXXXXX"))
	assert.Regexp(t, `^EV-20250704-[A-Z2-9]{6}$`, ref)
}

func TestErrorCode(t *testing.T) {
	wrapped := func(err error) error { return &wrapErr{err} }
	assert.Equal(t, "CapacityExceeded", ErrorCode(wrapped(ErrCapacityExceeded)))
	assert.Equal(t, "TooLateToModify", ErrorCode(ErrTooLateToModify))
	assert.Equal(t, "Internal", ErrorCode(assert.AnError))
}

type wrapErr struct{ err error }

func (w *wrapErr) Error() string { return "wrapped: " + w.err.Error() }
func (w *wrapErr) Unwrap() error { return w.err }
