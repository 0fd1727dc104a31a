package get_available_slots

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.StationID == uuid.Nil {
		return fmt.Errorf("%w: stationId is required", ErrInvalidInput)
	}

	// Проверяем, что дата не является нулевой
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if req.DurationMinutes < 0 {
		return fmt.Errorf("%w: duration must not be negative", ErrInvalidInput)
	}

	return nil
}

// validateDate проверяет, что день попадает в окно бронирования [сегодня, now+maxAdvance]
func validateDate(day, now time.Time, maxAdvance time.Duration) error {
	today := startOfDay(now.In(day.Location()))
	if day.Before(today) {
		return ErrInvalidDate
	}

	if maxAdvance > 0 && day.After(now.Add(maxAdvance)) {
		return fmt.Errorf("%w: can only book %d days in advance", ErrDateTooFarInFuture, int(maxAdvance.Hours()/24))
	}

	return nil
}

// startOfDay полночь дня t в его часовом поясе
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
