package complete_booking

// CompleteBookingRequest HTTP request model
type CompleteBookingRequest struct {
	QRData string `json:"qrData"`
}
