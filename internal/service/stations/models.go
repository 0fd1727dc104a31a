package stations

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

// CreateResult станция и, если запрошено, одноразово показываемые учётные данные оператора
type CreateResult struct {
	Station     *domain.Station
	Credentials *domain.OperatorCredentials
}

// SlotQuery параметры выборки слотов станции
type SlotQuery struct {
	StationID     uuid.UUID
	From          *time.Time
	To            *time.Time
	AvailableOnly bool
}
