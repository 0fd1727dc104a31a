package list_operators

import (
	"context"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

type StationService interface {
	ListOperators(ctx context.Context, actor domain.Actor) ([]*domain.Operator, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
