package can_modify_booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

type BookingService interface {
	CanModify(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.ModifyCheck, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
