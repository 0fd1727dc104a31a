package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "Pending"
	StatusApproved  BookingStatus = "Approved"
	StatusCompleted BookingStatus = "Completed"
	StatusCancelled BookingStatus = "Cancelled"
)

// transitions lists the allowed moves out of each status
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:  {StatusApproved, StatusCancelled},
	StatusApproved: {StatusCompleted, StatusCancelled, StatusPending},
}

// Valid reports whether s is a known status
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine allows s -> next.
// Approved -> Pending happens only when an approved booking is rescheduled.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Booking is a reservation of contiguous slots on one socket
type Booking struct {
	ID                  uuid.UUID
	Reference           string
	OwnerNIC            string
	StationID           uuid.UUID
	SlotID              uuid.UUID // first spanned slot
	ReservationDateTime time.Time
	DurationMinutes     int
	Status              BookingStatus
	CreatedBy           string

	CancellationReason *string
	ApprovedAt         *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// End returns the instant the reservation finishes
func (b *Booking) End() time.Time {
	return b.ReservationDateTime.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

// IsActive returns true while the booking holds slots and is not finished
func (b *Booking) IsActive() bool {
	return b.Status == StatusPending || b.Status == StatusApproved
}

// ModificationDeadline is the last instant the booking may be changed or cancelled (exclusive)
func (b *Booking) ModificationDeadline(cutoff time.Duration) time.Time {
	return b.ReservationDateTime.Add(-cutoff)
}

// BookingChanges is a partial update of a booking
type BookingChanges struct {
	SlotID              *uuid.UUID
	ReservationDateTime *time.Time
	DurationMinutes     *int
}

// IsEmpty reports whether nothing is being changed
func (c BookingChanges) IsEmpty() bool {
	return c.SlotID == nil && c.ReservationDateTime == nil && c.DurationMinutes == nil
}

// BookingFilter filters booking listings
type BookingFilter struct {
	StationID  *uuid.UUID
	StationIDs []uuid.UUID // set by role scoping for operators
	OwnerNIC   *string
	Status     *BookingStatus
	From       *time.Time
	To         *time.Time
}

// ModifyCheck answers whether a booking can still be changed
type ModifyCheck struct {
	CanModify bool
	Reason    string
	Deadline  time.Time
}

// referenceAlphabet has 32 symbols so a random byte maps onto it without bias
const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewBookingReference builds a human-friendly reference EV-YYYYMMDD-XXXXXX
func NewBookingReference(at time.Time) string {
	random := uuid.New()
	suffix := make([]byte, ReferenceSuffixLength)
	for i := range suffix {
		suffix[i] = referenceAlphabet[int(random[i])%len(referenceAlphabet)]
	}
	return fmt.Sprintf("EV-%s-%s", at.UTC().Format("20060102"), suffix)
}
