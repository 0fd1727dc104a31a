package create_station

import (
	"context"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/stations"
)

type StationService interface {
	Create(ctx context.Context, actor domain.Actor, cfg domain.StationConfig, withOperator bool) (*stations.CreateResult, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
