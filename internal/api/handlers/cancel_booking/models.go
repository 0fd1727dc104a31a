package cancel_booking

import "github.com/m04kA/SMC-ChargingBookingService/pkg/ptr"

// CancelBookingRequest HTTP request model
type CancelBookingRequest struct {
	CancellationReason *string `json:"cancellationReason,omitempty"`
}

// Reason возвращает причину отмены или пустую строку
func (r *CancelBookingRequest) Reason() string {
	return ptr.Value(r.CancellationReason)
}
