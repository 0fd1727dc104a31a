package get_available_slots

import (
	"fmt"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

var (
	// ErrStationNotFound возвращается, когда станция не найдена
	ErrStationNotFound = fmt.Errorf("%w: station not found", domain.ErrNotFound)

	// ErrInvalidDate возвращается при некорректной дате
	ErrInvalidDate = fmt.Errorf("%w: invalid date", domain.ErrValidation)

	// ErrDateTooFarInFuture возвращается, когда дата дальше окна бронирования
	ErrDateTooFarInFuture = fmt.Errorf("%w: date is too far in the future", domain.ErrValidation)

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("%w: invalid input data", domain.ErrValidation)

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = fmt.Errorf("usecase: %w", domain.ErrInternal)
)
