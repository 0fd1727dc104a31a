package cancel_booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

type BookingService interface {
	Cancel(ctx context.Context, actor domain.Actor, id uuid.UUID, reason string) (*domain.Booking, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
