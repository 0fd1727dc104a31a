package stations

import (
	"fmt"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

var (
	// ErrStationNotFound возвращается, когда станция не найдена
	ErrStationNotFound = fmt.Errorf("%w: station not found", domain.ErrNotFound)

	// ErrOperatorNotFound возвращается, когда оператор не найден
	ErrOperatorNotFound = fmt.Errorf("%w: operator not found", domain.ErrNotFound)

	// ErrOperatorInactive возвращается при назначении деактивированного оператора
	ErrOperatorInactive = fmt.Errorf("%w: operator account is inactive", domain.ErrValidation)

	// ErrOperatorEditLimited возвращается, когда оператор пытается менять что-то кроме isActive
	ErrOperatorEditLimited = fmt.Errorf("%w: station operators may only change isActive", domain.ErrForbidden)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = fmt.Errorf("stations: %w", domain.ErrInternal)
)
