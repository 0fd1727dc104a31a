package domain

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatusChanged is published after every booking transition
type BookingStatusChanged struct {
	BookingID  uuid.UUID     `json:"bookingId"`
	Reference  string        `json:"bookingReference"`
	StationID  uuid.UUID     `json:"stationId"`
	OwnerNIC   string        `json:"ownerNic"`
	From       BookingStatus `json:"from,omitempty"`
	To         BookingStatus `json:"to"`
	ActorID    string        `json:"actorId"`
	OccurredAt time.Time     `json:"occurredAt"`
}
