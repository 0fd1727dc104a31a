package station

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/psqlbuilder"
)

var columns = []string{
	"id",
	"name",
	"type",
	"address",
	"city",
	"latitude",
	"longitude",
	"total_sockets",
	"slots_per_day",
	"open_time",
	"close_time",
	"timezone",
	"operator_id",
	"is_active",
	"created_at",
	"updated_at",
}

// Repository репозиторий станций
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория станций
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет новую станцию
func (r *Repository) Create(ctx context.Context, s *domain.Station) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("stations").
		Columns(columns...).
		Values(
			s.ID,
			s.Name,
			s.Type,
			s.Location.Address,
			s.Location.City,
			s.Location.Latitude,
			s.Location.Longitude,
			s.TotalSockets,
			s.SlotsPerDay,
			s.OpenTime,
			s.CloseTime,
			s.Timezone,
			s.OperatorID,
			s.IsActive,
			s.CreatedAt,
			s.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}
	return nil
}

// GetByID получает станцию по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Station, error) {
	return r.get(ctx, id, "")
}

// GetByIDForUpdate получает станцию и блокирует строку до конца транзакции.
// Вне транзакции блокировка бессмысленна, поэтому там это обычный SELECT.
func (r *Repository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Station, error) {
	if !dbmetrics.IsInTransaction(ctx) {
		return r.get(ctx, id, "")
	}
	return r.get(ctx, id, "FOR UPDATE")
}

func (r *Repository) get(ctx context.Context, id uuid.UUID, suffix string) (*domain.Station, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(columns...).
		From("stations").
		Where(squirrel.Eq{"id": id})
	if suffix != "" {
		builder = builder.Suffix(suffix)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	s, err := scanStation(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan station: %v", ErrScanRow, err)
	}
	return s, nil
}

// List возвращает станции по фильтру, упорядоченные по имени
func (r *Repository) List(ctx context.Context, filter domain.StationFilter) ([]*domain.Station, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(columns...).
		From("stations").
		OrderBy("name ASC", "id ASC")

	if filter.Type != nil {
		builder = builder.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.ActiveOnly {
		builder = builder.Where(squirrel.Eq{"is_active": true})
	}
	if filter.OperatorID != nil {
		builder = builder.Where(squirrel.Eq{"operator_id": *filter.OperatorID})
	}
	if filter.City != "" {
		builder = builder.Where(squirrel.ILike{"city": filter.City})
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

	stations := make([]*domain.Station, 0)
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: List - scan station: %v", ErrScanRow, err)
		}
		stations = append(stations, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - rows iteration: %v", ErrScanRow, err)
	}
	return stations, nil
}

// Update сохраняет изменяемые поля станции
func (r *Repository) Update(ctx context.Context, s *domain.Station) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("stations").
		SetMap(map[string]interface{}{
			"name":          s.Name,
			"type":          s.Type,
			"address":       s.Location.Address,
			"city":          s.Location.City,
			"latitude":      s.Location.Latitude,
			"longitude":     s.Location.Longitude,
			"total_sockets": s.TotalSockets,
			"slots_per_day": s.SlotsPerDay,
			"open_time":     s.OpenTime,
			"close_time":    s.CloseTime,
			"timezone":      s.Timezone,
			"operator_id":   s.OperatorID,
			"is_active":     s.IsActive,
			"updated_at":    s.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": s.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Update - execute update: %w", ErrExecQuery, err)
	}
	return requireAffected(result, "Update")
}

// Delete удаляет станцию (слоты удаляются каскадно)
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("stations").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %w", ErrExecQuery, err)
	}
	return requireAffected(result, "Delete")
}

func requireAffected(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - rows affected: %v", ErrExecQuery, op, err)
	}
	if affected == 0 {
		return ErrStationNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanStation(row scanner) (*domain.Station, error) {
	var (
		s          domain.Station
		operatorID uuid.NullUUID
	)
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Type,
		&s.Location.Address,
		&s.Location.City,
		&s.Location.Latitude,
		&s.Location.Longitude,
		&s.TotalSockets,
		&s.SlotsPerDay,
		&s.OpenTime,
		&s.CloseTime,
		&s.Timezone,
		&operatorID,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if operatorID.Valid {
		s.OperatorID = &operatorID.UUID
	}
	return &s, nil
}
