package list_stations

import (
	"context"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

type StationService interface {
	List(ctx context.Context, actor domain.Actor, filter domain.StationFilter) ([]*domain.Station, error)
	MyStations(ctx context.Context, actor domain.Actor) ([]*domain.Station, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
