package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	"github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/token"
)

type TokenRepository struct {
	s *Store
}

func (r *TokenRepository) Create(ctx context.Context, t *domain.VerificationToken) error {
	defer r.s.lock(ctx)()
	r.s.tokens[t.ID] = *t
	return nil
}

func (r *TokenRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.VerificationToken, error) {
	defer r.s.lock(ctx)()
	t, ok := r.s.tokens[id]
	if !ok {
		return nil, token.ErrTokenNotFound
	}
	return &t, nil
}

func (r *TokenRepository) Redeem(ctx context.Context, id uuid.UUID, at time.Time) error {
	defer r.s.lock(ctx)()
	t, ok := r.s.tokens[id]
	if !ok || t.IsRedeemed() || t.IsRevoked() {
		return token.ErrNotRedeemable
	}
	t.RedeemedAt = &at
	r.s.tokens[id] = t
	return nil
}

func (r *TokenRepository) RevokeByBooking(ctx context.Context, bookingID uuid.UUID, at time.Time) (int64, error) {
	defer r.s.lock(ctx)()
	var affected int64
	for id, t := range r.s.tokens {
		if t.BookingID != bookingID || t.IsRedeemed() || t.IsRevoked() {
			continue
		}
		revokedAt := at
		t.RevokedAt = &revokedAt
		r.s.tokens[id] = t
		affected++
	}
	return affected, nil
}
