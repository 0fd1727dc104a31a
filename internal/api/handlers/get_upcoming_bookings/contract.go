package get_upcoming_bookings

import (
	"context"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

type BookingService interface {
	Upcoming(ctx context.Context, actor domain.Actor, nic string) ([]*domain.Booking, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
