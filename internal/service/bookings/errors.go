package bookings

import (
	"fmt"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = fmt.Errorf("%w: booking not found", domain.ErrNotFound)

	// ErrNoChanges возвращается, когда запрос на изменение пуст
	ErrNoChanges = fmt.Errorf("%w: nothing to update", domain.ErrValidation)

	// ErrReasonTooLong возвращается при слишком длинной причине отмены
	ErrReasonTooLong = fmt.Errorf("%w: cancellation reason is too long", domain.ErrValidation)

	// ErrConcurrentChange возвращается, когда статус изменился параллельным запросом
	ErrConcurrentChange = fmt.Errorf("%w: booking was changed concurrently", domain.ErrInvalidTransition)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = fmt.Errorf("bookings: %w", domain.ErrInternal)
)
