package domain

import (
	"time"

	"github.com/google/uuid"
)

// VerificationToken is the stored record behind a signed QR token
type VerificationToken struct {
	ID         uuid.UUID
	BookingID  uuid.UUID
	IssuedAt   time.Time
	ExpiresAt  time.Time
	RedeemedAt *time.Time
	RevokedAt  *time.Time
}

// IsRedeemed reports whether the token was consumed
func (t *VerificationToken) IsRedeemed() bool {
	return t.RedeemedAt != nil
}

// IsRevoked reports whether the token was superseded or its booking cancelled
func (t *VerificationToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IssuedToken is returned to the caller once, together with the opaque token string
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
	Booking   *Booking
}

// TokenSnapshot is what a station sees after validating a token
type TokenSnapshot struct {
	TokenID   uuid.UUID
	ExpiresAt time.Time
	Booking   *Booking
}

// RedemptionProof is the evidence required to complete a booking
type RedemptionProof struct {
	TokenID    uuid.UUID
	BookingID  uuid.UUID
	RedeemedAt time.Time
	RedeemedBy string // actor id of the station that scanned the token
}
