package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	"github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/pgerr"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/psqlbuilder"
)

var columns = []string{
	"id",
	"booking_reference",
	"owner_nic",
	"station_id",
	"slot_id",
	"reservation_date_time",
	"duration_minutes",
	"status",
	"created_by",
	"cancellation_reason",
	"approved_at",
	"completed_at",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование.
// Если в контексте передана активная транзакция, использует её: бронирование
// вставляется в той же транзакции, что и резервирование слотов.
func (r *Repository) Create(ctx context.Context, b *domain.Booking) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(columns...).
		Values(
			b.ID,
			b.Reference,
			b.OwnerNIC,
			b.StationID,
			b.SlotID,
			b.ReservationDateTime,
			b.DurationMinutes,
			b.Status,
			b.CreatedBy,
			b.CancellationReason,
			b.ApprovedAt,
			b.CompletedAt,
			b.CancelledAt,
			b.CreatedAt,
			b.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		if pgerr.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateReference, b.Reference)
		}
		return fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}
	return nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From("bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	b, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}
	return b, nil
}

// List получает бронирования с фильтрацией по станции, владельцу, статусу и периоду.
// Результат упорядочен по времени начала.
func (r *Repository) List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(columns...).
		From("bookings").
		OrderBy("reservation_date_time ASC", "id ASC")

	if filter.StationID != nil {
		builder = builder.Where(squirrel.Eq{"station_id": *filter.StationID})
	}
	if filter.StationIDs != nil {
		builder = builder.Where(squirrel.Eq{"station_id": filter.StationIDs})
	}
	if filter.OwnerNIC != nil {
		builder = builder.Where(squirrel.Eq{"owner_nic": *filter.OwnerNIC})
	}
	if filter.Status != nil {
		builder = builder.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.From != nil {
		builder = builder.Where(squirrel.GtOrEq{"reservation_date_time": *filter.From})
	}
	if filter.To != nil {
		builder = builder.Where(squirrel.Lt{"reservation_date_time": *filter.To})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	bookings := make([]*domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: List - scan booking: %v", ErrScanRow, err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - rows iteration: %v", ErrScanRow, err)
	}
	return bookings, nil
}

// Update сохраняет изменяемые поля бронирования при условии, что статус в БД
// всё ещё равен expected. Иначе возвращает ErrStatusMismatch.
func (r *Repository) Update(ctx context.Context, b *domain.Booking, expected domain.BookingStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		SetMap(map[string]interface{}{
			"slot_id":               b.SlotID,
			"reservation_date_time": b.ReservationDateTime,
			"duration_minutes":      b.DurationMinutes,
			"status":                b.Status,
			"cancellation_reason":   b.CancellationReason,
			"approved_at":           b.ApprovedAt,
			"completed_at":          b.CompletedAt,
			"cancelled_at":          b.CancelledAt,
			"updated_at":            b.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": b.ID, "status": expected}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Update - execute update: %w", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Update - rows affected: %v", ErrExecQuery, err)
	}
	if affected == 0 {
		return ErrStatusMismatch
	}
	return nil
}

// CountActiveByStation считает бронирования станции в статусах Pending/Approved
func (r *Repository) CountActiveByStation(ctx context.Context, stationID uuid.UUID) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From("bookings").
		Where(squirrel.Eq{"station_id": stationID, "status": domain.ActiveStatuses}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountActiveByStation - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountActiveByStation - scan count: %v", ErrScanRow, err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row scanner) (*domain.Booking, error) {
	var b domain.Booking
	var cancellationReason sql.NullString
	var approvedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&b.ID,
		&b.Reference,
		&b.OwnerNIC,
		&b.StationID,
		&b.SlotID,
		&b.ReservationDateTime,
		&b.DurationMinutes,
		&b.Status,
		&b.CreatedBy,
		&cancellationReason,
		&approvedAt,
		&completedAt,
		&cancelledAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if cancellationReason.Valid {
		b.CancellationReason = &cancellationReason.String
	}
	b.ApprovedAt = nullTime(approvedAt)
	b.CompletedAt = nullTime(completedAt)
	b.CancelledAt = nullTime(cancelledAt)
	return &b, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
