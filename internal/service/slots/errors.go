package slots

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

var (
	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = fmt.Errorf("%w: slot not found", domain.ErrNotFound)

	// ErrSlotTaken возвращается, когда часть окна уже занята
	ErrSlotTaken = fmt.Errorf("%w: requested slots are already reserved", domain.ErrCapacityExceeded)

	// ErrNoFreeSocket возвращается, когда все сокеты станции заняты в окне
	ErrNoFreeSocket = fmt.Errorf("%w: all sockets are reserved for this window", domain.ErrCapacityExceeded)

	// ErrContention возвращается при конкурентном доступе к станции; операцию можно повторить
	ErrContention = errors.New("slots: station is being reserved concurrently")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = fmt.Errorf("slots: %w", domain.ErrInternal)
)
