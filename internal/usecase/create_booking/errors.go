package create_booking

import (
	"fmt"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

var (
	// ErrStationNotFound возвращается, когда станция не найдена
	ErrStationNotFound = fmt.Errorf("%w: create_booking: station not found", domain.ErrNotFound)

	// ErrStationInactive возвращается, когда станция не принимает бронирования
	ErrStationInactive = fmt.Errorf("%w: create_booking: station is not accepting bookings", domain.ErrStationInactive)

	// ErrOwnerNotFound возвращается, когда владелец EV не зарегистрирован
	ErrOwnerNotFound = fmt.Errorf("%w: create_booking: ev owner not found", domain.ErrNotFound)

	// ErrOwnerInactive возвращается, когда учётная запись владельца деактивирована
	ErrOwnerInactive = fmt.Errorf("%w: create_booking: ev owner account is inactive", domain.ErrForbidden)

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("%w: create_booking: invalid input data", domain.ErrValidation)

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = fmt.Errorf("create_booking: %w", domain.ErrInternal)
)
