package get_available_slots

import (
	"context"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-ChargingBookingService/internal/usecase/get_available_slots"
)

type GetAvailableSlotsUseCase interface {
	Execute(ctx context.Context, actor domain.Actor, req *getAvailableSlots.Request) (*getAvailableSlots.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
