package validate_qr

import (
	"context"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/verification"
)

type VerificationService interface {
	ValidateQR(ctx context.Context, actor domain.Actor, raw string) (*verification.QRCheck, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
