package create_booking

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	req.OwnerNIC = strings.TrimSpace(req.OwnerNIC)
	if req.OwnerNIC == "" {
		return fmt.Errorf("%w: ownerNic is required", ErrInvalidInput)
	}

	if req.StationID == uuid.Nil {
		return fmt.Errorf("%w: stationId is required", ErrInvalidInput)
	}

	// Нужен либо слот, либо время начала
	if req.SlotID == uuid.Nil && req.ReservationDateTime.IsZero() {
		return fmt.Errorf("%w: slotId or reservationDateTime is required", ErrInvalidInput)
	}

	return nil
}
