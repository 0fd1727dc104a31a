package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// slotNamespace seeds deterministic slot ids
var slotNamespace = uuid.MustParse("6f1c2a4e-3b7d-5e90-8a12-4c5d6e7f8091")

// Slot is one socket for one time window
type Slot struct {
	ID          uuid.UUID
	StationID   uuid.UUID
	Socket      int
	StartTime   time.Time
	EndTime     time.Time
	IsAvailable bool
	BookingID   *uuid.UUID
}

// SlotID derives the id of the window starting at start on socket.
// The same inputs always give the same id.
func SlotID(stationID uuid.UUID, socket int, start time.Time) uuid.UUID {
	key := fmt.Sprintf("%s/%d/%s", stationID, socket, start.UTC().Format(time.RFC3339))
	return uuid.NewSHA1(slotNamespace, []byte(key))
}

// Overlaps reports whether the slot intersects [from, to)
func (s *Slot) Overlaps(from, to time.Time) bool {
	return s.StartTime.Before(to) && from.Before(s.EndTime)
}

// Covers reports whether t falls within [StartTime, EndTime)
func (s *Slot) Covers(t time.Time) bool {
	return !t.Before(s.StartTime) && t.Before(s.EndTime)
}

// IsHeld reports whether a booking occupies the slot
func (s *Slot) IsHeld() bool {
	return !s.IsAvailable
}

// SlotFilter filters slot listings
type SlotFilter struct {
	StationID     uuid.UUID
	From          *time.Time
	To            *time.Time
	AvailableOnly bool
}
