package verification

import "github.com/m04kA/SMC-ChargingBookingService/internal/domain"

// QRCheck результат проверки QR-кода на станции
type QRCheck struct {
	IsValid      bool
	Snapshot     *domain.TokenSnapshot // заполнен при IsValid
	ErrorCode    string
	ErrorMessage string
}
