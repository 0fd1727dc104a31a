package get_station_slots

import (
	"context"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/stations"
)

type StationService interface {
	ListSlots(ctx context.Context, actor domain.Actor, q stations.SlotQuery) ([]*domain.Slot, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
