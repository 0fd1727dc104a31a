package get_available_slots

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	getAvailableSlots "github.com/m04kA/SMC-ChargingBookingService/internal/usecase/get_available_slots"
)

const dateLayout = "2006-01-02"

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	StationID     uuid.UUID      `json:"chargingStationId"`
	Date          string         `json:"date"` // YYYY-MM-DD
	Timezone      string         `json:"timezone"`
	StationActive bool           `json:"stationActive"`
	Slots         []SlotResponse `json:"slots"`
}

// SlotResponse окно в ответе
type SlotResponse struct {
	StartTime       time.Time  `json:"startTime"`
	LocalStart      string     `json:"localStart"` // HH:MM
	DurationMinutes int        `json:"durationMinutes"`
	AvailableSpots  int        `json:"availableSpots"`
	TotalSpots      int        `json:"totalSpots"`
	SlotID          *uuid.UUID `json:"slotId,omitempty"`
}

// ToUseCaseRequest формирует запрос use case из параметров URL
func ToUseCaseRequest(stationID uuid.UUID, dateStr, durationStr string) (*getAvailableSlots.Request, error) {
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}

	req := &getAvailableSlots.Request{
		StationID: stationID,
		Date:      date,
	}
	if durationStr != "" {
		if req.DurationMinutes, err = strconv.Atoi(durationStr); err != nil {
			return nil, fmt.Errorf("duration: %w", err)
		}
	}
	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	out := &AvailableSlotsResponse{
		StationID:     resp.StationID,
		Date:          resp.Date.Format(dateLayout),
		Timezone:      resp.Timezone,
		StationActive: resp.StationActive,
		Slots:         make([]SlotResponse, 0, len(resp.Slots)),
	}
	for _, s := range resp.Slots {
		out.Slots = append(out.Slots, SlotResponse{
			StartTime:       s.StartTime,
			LocalStart:      s.LocalStart.String(),
			DurationMinutes: s.DurationMinutes,
			AvailableSpots:  s.AvailableSpots,
			TotalSpots:      s.TotalSpots,
			SlotID:          s.FirstFreeSlotID,
		})
	}
	return out
}
