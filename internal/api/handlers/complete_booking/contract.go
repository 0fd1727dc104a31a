package complete_booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

type VerificationService interface {
	Redeem(ctx context.Context, actor domain.Actor, raw string, expectedBookingID *uuid.UUID) (*domain.Booking, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
