package create_booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/service/bookings/models"
	stationModels "github.com/m04kA/SMC-ChargingBookingService/internal/service/stations/models"
	createBooking "github.com/m04kA/SMC-ChargingBookingService/internal/usecase/create_booking"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	OwnerNIC            string `json:"evOwnerNIC"`
	StationID           string `json:"chargingStationId"`
	SlotID              string `json:"slotId,omitempty"`
	ReservationDateTime string `json:"reservationDateTime,omitempty"` // RFC3339
	DurationMinutes     int    `json:"durationMinutes"`
}

// CreateBookingResponse HTTP response model
type CreateBookingResponse struct {
	*models.BookingResponse
	Slots []stationModels.SlotResponse `json:"slots"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest() (*createBooking.Request, error) {
	stationID, err := uuid.Parse(r.StationID)
	if err != nil {
		return nil, fmt.Errorf("chargingStationId: %w", err)
	}

	req := &createBooking.Request{
		OwnerNIC:        r.OwnerNIC,
		StationID:       stationID,
		DurationMinutes: r.DurationMinutes,
	}

	if r.SlotID != "" {
		if req.SlotID, err = uuid.Parse(r.SlotID); err != nil {
			return nil, fmt.Errorf("slotId: %w", err)
		}
	}
	if r.ReservationDateTime != "" {
		if req.ReservationDateTime, err = time.Parse(time.RFC3339, r.ReservationDateTime); err != nil {
			return nil, fmt.Errorf("reservationDateTime: %w", err)
		}
	}
	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *CreateBookingResponse {
	return &CreateBookingResponse{
		BookingResponse: models.FromDomainBooking(resp.Booking),
		Slots:           stationModels.FromDomainSlotList(resp.Slots).Slots,
	}
}
