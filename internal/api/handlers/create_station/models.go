package create_station

import (
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/stations/models"
)

// CreateStationRequest HTTP request model
type CreateStationRequest struct {
	models.StationRequest
	WithOperator bool `json:"withOperator"` // создать учётную запись оператора станции
}
