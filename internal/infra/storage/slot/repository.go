package slot

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

// insertBatchSize ограничивает число строк в одном INSERT (7 колонок, лимит плейсхолдеров 65535)
const insertBatchSize = 1000

var columns = []string{
	"id",
	"station_id",
	"socket",
	"start_time",
	"end_time",
	"is_available",
	"booking_id",
}

// Repository репозиторий слотов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// InsertIfAbsent вставляет слоты, пропуская уже существующие окна.
// Возвращает число реально вставленных строк.
func (r *Repository) InsertIfAbsent(ctx context.Context, slots []*domain.Slot) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	var inserted int64
	for start := 0; start < len(slots); start += insertBatchSize {
		end := min(start+insertBatchSize, len(slots))

		builder := psqlbuilder.Insert("slots").Columns(columns...)
		for _, s := range slots[start:end] {
			builder = builder.Values(s.ID, s.StationID, s.Socket, s.StartTime, s.EndTime, s.IsAvailable, s.BookingID)
		}

		query, args, err := builder.
			Suffix("ON CONFLICT (station_id, socket, start_time) DO NOTHING").
			ToSql()
		if err != nil {
			return inserted, fmt.Errorf("%w: InsertIfAbsent - build insert query: %v", ErrBuildQuery, err)
		}

		result, err := executor.ExecContext(ctx, query, args...)
		if err != nil {
			return inserted, fmt.Errorf("%w: InsertIfAbsent - execute insert: %w", ErrExecQuery, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("%w: InsertIfAbsent - rows affected: %v", ErrExecQuery, err)
		}
		inserted += affected
	}
	return inserted, nil
}

// GetByID получает слот по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From("slots").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	s, err := scanSlot(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan slot: %w", ErrScanRow, err)
	}
	return s, nil
}

// List возвращает слоты станции по фильтру в порядке (start_time, socket)
func (r *Repository) List(ctx context.Context, filter domain.SlotFilter) ([]*domain.Slot, error) {
	builder := psqlbuilder.Select(columns...).
		From("slots").
		Where(squirrel.Eq{"station_id": filter.StationID}).
		OrderBy("start_time ASC", "socket ASC")

	if filter.From != nil {
		builder = builder.Where(squirrel.GtOrEq{"start_time": *filter.From})
	}
	if filter.To != nil {
		builder = builder.Where(squirrel.Lt{"start_time": *filter.To})
	}
	if filter.AvailableOnly {
		builder = builder.Where(squirrel.Eq{"is_available": true})
	}

	return r.query(ctx, "List", builder)
}

// ListSocketRange возвращает слоты одного сокета, начинающиеся в [from, to)
func (r *Repository) ListSocketRange(ctx context.Context, stationID uuid.UUID, socket int, from, to time.Time) ([]*domain.Slot, error) {
	builder := psqlbuilder.Select(columns...).
		From("slots").
		Where(squirrel.Eq{"station_id": stationID, "socket": socket}).
		Where(squirrel.GtOrEq{"start_time": from}).
		Where(squirrel.Lt{"start_time": to}).
		OrderBy("start_time ASC")

	return r.query(ctx, "ListSocketRange", builder)
}

// ListByBooking возвращает слоты, занятые бронированием
func (r *Repository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*domain.Slot, error) {
	builder := psqlbuilder.Select(columns...).
		From("slots").
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy("start_time ASC")

	return r.query(ctx, "ListByBooking", builder)
}

// ListRange возвращает все слоты станции, пересекающие [from, to)
func (r *Repository) ListRange(ctx context.Context, stationID uuid.UUID, from, to time.Time) ([]*domain.Slot, error) {
	builder := psqlbuilder.Select(columns...).
		From("slots").
		Where(squirrel.Eq{"station_id": stationID}).
		Where(squirrel.Lt{"start_time": to}).
		Where(squirrel.Gt{"end_time": from}).
		OrderBy("start_time ASC", "socket ASC")

	return r.query(ctx, "ListRange", builder)
}

// ListHeldOverlapping возвращает занятые слоты станции, пересекающие [from, to)
func (r *Repository) ListHeldOverlapping(ctx context.Context, stationID uuid.UUID, from, to time.Time) ([]*domain.Slot, error) {
	builder := psqlbuilder.Select(columns...).
		From("slots").
		Where(squirrel.Eq{"station_id": stationID, "is_available": false}).
		Where(squirrel.Lt{"start_time": to}).
		Where(squirrel.Gt{"end_time": from}).
		OrderBy("start_time ASC", "socket ASC")

	return r.query(ctx, "ListHeldOverlapping", builder)
}

// Reserve атомарно переводит свободные слоты в занятые.
// Обновляются только слоты с is_available = true, поэтому результат меньше len(ids)
// означает, что кто-то успел занять часть окна.
func (r *Repository) Reserve(ctx context.Context, ids []uuid.UUID, bookingID uuid.UUID) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("slots").
		Set("is_available", false).
		Set("booking_id", bookingID).
		Where(squirrel.Eq{"id": ids, "is_available": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: Reserve - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: Reserve - execute update: %w", ErrExecQuery, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: Reserve - rows affected: %v", ErrExecQuery, err)
	}
	return affected, nil
}

// ReleaseByBooking освобождает все слоты бронирования
func (r *Repository) ReleaseByBooking(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("slots").
		Set("is_available", true).
		Set("booking_id", nil).
		Where(squirrel.Eq{"booking_id": bookingID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: ReleaseByBooking - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: ReleaseByBooking - execute update: %w", ErrExecQuery, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: ReleaseByBooking - rows affected: %v", ErrExecQuery, err)
	}
	return affected, nil
}

// DeleteAvailable удаляет слоты из ids, оставшиеся свободными
func (r *Repository) DeleteAvailable(ctx context.Context, ids []uuid.UUID) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("slots").
		Where(squirrel.Eq{"id": ids, "is_available": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteAvailable - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteAvailable - execute delete: %w", ErrExecQuery, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteAvailable - rows affected: %v", ErrExecQuery, err)
	}
	return affected, nil
}

// DeleteAvailableFrom удаляет свободные слоты станции, начинающиеся не раньше from
func (r *Repository) DeleteAvailableFrom(ctx context.Context, stationID uuid.UUID, from time.Time) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("slots").
		Where(squirrel.Eq{"station_id": stationID, "is_available": true}).
		Where(squirrel.GtOrEq{"start_time": from}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteAvailableFrom - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteAvailableFrom - execute delete: %w", ErrExecQuery, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteAvailableFrom - rows affected: %v", ErrExecQuery, err)
	}
	return affected, nil
}

// DeleteByStation удаляет все слоты станции
func (r *Repository) DeleteByStation(ctx context.Context, stationID uuid.UUID) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("slots").
		Where(squirrel.Eq{"station_id": stationID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: DeleteByStation - build delete query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: DeleteByStation - execute delete: %w", ErrExecQuery, err)
	}
	return nil
}

func (r *Repository) query(ctx context.Context, op string, builder squirrel.SelectBuilder) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %w", ErrExecQuery, op, err)
	}
	defer rows.Close()

	slots := make([]*domain.Slot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan slot: %v", ErrScanRow, op, err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows iteration: %v", ErrScanRow, op, err)
	}
	return slots, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSlot(row scanner) (*domain.Slot, error) {
	var (
		s         domain.Slot
		bookingID uuid.NullUUID
	)
	if err := row.Scan(&s.ID, &s.StationID, &s.Socket, &s.StartTime, &s.EndTime, &s.IsAvailable, &bookingID); err != nil {
		return nil, err
	}
	if bookingID.Valid {
		s.BookingID = &bookingID.UUID
	}
	return &s, nil
}
