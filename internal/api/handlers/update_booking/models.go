package update_booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

// UpdateBookingRequest HTTP request model, все поля необязательные
type UpdateBookingRequest struct {
	SlotID              *string `json:"slotId,omitempty"`
	ReservationDateTime *string `json:"reservationDateTime,omitempty"` // RFC3339
	DurationMinutes     *int    `json:"durationMinutes,omitempty"`
}

// ToDomainChanges конвертирует HTTP запрос в набор изменений
func (r *UpdateBookingRequest) ToDomainChanges() (domain.BookingChanges, error) {
	changes := domain.BookingChanges{DurationMinutes: r.DurationMinutes}

	if r.SlotID != nil {
		id, err := uuid.Parse(*r.SlotID)
		if err != nil {
			return changes, fmt.Errorf("slotId: %w", err)
		}
		changes.SlotID = &id
	}
	if r.ReservationDateTime != nil {
		t, err := time.Parse(time.RFC3339, *r.ReservationDateTime)
		if err != nil {
			return changes, fmt.Errorf("reservationDateTime: %w", err)
		}
		changes.ReservationDateTime = &t
	}
	return changes, nil
}
