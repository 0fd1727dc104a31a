package approve_booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

type BookingService interface {
	Approve(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Booking, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
