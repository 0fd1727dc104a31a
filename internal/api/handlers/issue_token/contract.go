package issue_token

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

type VerificationService interface {
	Issue(ctx context.Context, actor domain.Actor, bookingID uuid.UUID) (*domain.IssuedToken, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
