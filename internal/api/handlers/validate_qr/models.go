package validate_qr

import (
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/verification"
)

// ValidateQRRequest HTTP request model
type ValidateQRRequest struct {
	QRData string `json:"qrData"`
}

// ValidateQRResponse HTTP response model, ошибки токена возвращаются в теле с кодом 200
type ValidateQRResponse struct {
	IsValid      bool                          `json:"isValid"`
	ErrorCode    string                        `json:"errorCode,omitempty"`
	ErrorMessage string                        `json:"errorMessage,omitempty"`
	Token        *models.TokenSnapshotResponse `json:"token,omitempty"`
}

// FromQRCheck конвертирует результат проверки в HTTP response
func FromQRCheck(c *verification.QRCheck) *ValidateQRResponse {
	return &ValidateQRResponse{
		IsValid:      c.IsValid,
		ErrorCode:    c.ErrorCode,
		ErrorMessage: c.ErrorMessage,
		Token:        models.FromTokenSnapshot(c.Snapshot),
	}
}
