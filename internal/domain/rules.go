package domain

import (
	"fmt"
	"time"
)

// BookingRules temporal and duration limits applied to every booking
type BookingRules struct {
	MaxAdvance         time.Duration
	ModificationCutoff time.Duration
	MinDuration        int
	MaxDuration        int
	DurationStep       int
}

// DefaultBookingRules 7 days ahead, 12h cutoff, 30..240 minutes in steps of 30
func DefaultBookingRules() BookingRules {
	return BookingRules{
		MaxAdvance:         DefaultMaxAdvanceDays * 24 * time.Hour,
		ModificationCutoff: DefaultModificationCutoffHrs * time.Hour,
		MinDuration:        DefaultMinDurationMinutes,
		MaxDuration:        DefaultMaxDurationMinutes,
		DurationStep:       DefaultDurationStepMinutes,
	}
}

// ValidateDuration checks the duration grid
func (r BookingRules) ValidateDuration(minutes int) error {
	if minutes < r.MinDuration || minutes > r.MaxDuration || minutes%r.DurationStep != 0 {
		return fmt.Errorf("%w: duration must be between %d and %d minutes in steps of %d",
			ErrValidation, r.MinDuration, r.MaxDuration, r.DurationStep)
	}
	return nil
}

// ValidateStart checks now < start <= now + MaxAdvance
func (r BookingRules) ValidateStart(now, start time.Time) error {
	if !start.After(now) {
		return fmt.Errorf("%w: reservation time must be in the future", ErrValidation)
	}
	if start.After(now.Add(r.MaxAdvance)) {
		return fmt.Errorf("%w: reservation time must be within %d days", ErrValidation, int(r.MaxAdvance.Hours()/24))
	}
	return nil
}

// CheckModifiable returns ErrTooLateToModify once now reaches start - cutoff
func (r BookingRules) CheckModifiable(now time.Time, b *Booking) error {
	deadline := b.ModificationDeadline(r.ModificationCutoff)
	if !now.Before(deadline) {
		return fmt.Errorf("%w: changes are allowed until %s", ErrTooLateToModify, deadline.UTC().Format(time.RFC3339))
	}
	return nil
}
