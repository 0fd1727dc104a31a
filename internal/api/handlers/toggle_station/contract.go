package toggle_station

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

type StationService interface {
	Deactivate(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Station, error)
	Reactivate(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Station, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
