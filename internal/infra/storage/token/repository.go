package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/psqlbuilder"
)

var columns = []string{
	"id",
	"booking_id",
	"issued_at",
	"expires_at",
	"redeemed_at",
	"revoked_at",
}

// Repository репозиторий токенов подтверждения
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория токенов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет запись о выпущенном токене
func (r *Repository) Create(ctx context.Context, t *domain.VerificationToken) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("verification_tokens").
		Columns(columns...).
		Values(t.ID, t.BookingID, t.IssuedAt, t.ExpiresAt, t.RedeemedAt, t.RevokedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}
	return nil
}

// GetByID получает запись токена по jti
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.VerificationToken, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From("verification_tokens").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var (
		t                     domain.VerificationToken
		redeemedAt, revokedAt sql.NullTime
	)
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&t.ID,
		&t.BookingID,
		&t.IssuedAt,
		&t.ExpiresAt,
		&redeemedAt,
		&revokedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan token: %v", ErrScanRow, err)
	}

	if redeemedAt.Valid {
		t.RedeemedAt = &redeemedAt.Time
	}
	if revokedAt.Valid {
		t.RevokedAt = &revokedAt.Time
	}
	return &t, nil
}

// Redeem помечает токен погашенным, только если он ещё не погашен и не отозван.
// Условный UPDATE гарантирует, что из двух конкурентных погашений успешно только одно.
func (r *Repository) Redeem(ctx context.Context, id uuid.UUID, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("verification_tokens").
		Set("redeemed_at", at).
		Where(squirrel.Eq{"id": id, "redeemed_at": nil, "revoked_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Redeem - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Redeem - execute update: %w", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Redeem - rows affected: %v", ErrExecQuery, err)
	}
	if affected == 0 {
		return ErrNotRedeemable
	}
	return nil
}

// RevokeByBooking отзывает все живые токены бронирования
func (r *Repository) RevokeByBooking(ctx context.Context, bookingID uuid.UUID, at time.Time) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("verification_tokens").
		Set("revoked_at", at).
		Where(squirrel.Eq{"booking_id": bookingID, "redeemed_at": nil, "revoked_at": nil}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: RevokeByBooking - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: RevokeByBooking - execute update: %w", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: RevokeByBooking - rows affected: %v", ErrExecQuery, err)
	}
	return affected, nil
}
