package validate_token

import (
	"context"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

type VerificationService interface {
	Validate(ctx context.Context, actor domain.Actor, raw string) (*domain.TokenSnapshot, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
