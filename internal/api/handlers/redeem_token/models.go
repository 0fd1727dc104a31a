package redeem_token

import (
	"fmt"

	"github.com/google/uuid"
)

// RedeemTokenRequest HTTP request model
type RedeemTokenRequest struct {
	Token     string  `json:"token"`
	BookingID *string `json:"bookingId,omitempty"`
}

// ExpectedBookingID разбирает необязательный ID бронирования
func (r *RedeemTokenRequest) ExpectedBookingID() (*uuid.UUID, error) {
	if r.BookingID == nil || *r.BookingID == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*r.BookingID)
	if err != nil {
		return nil, fmt.Errorf("bookingId: %w", err)
	}
	return &id, nil
}
