package operator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	"github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/pgerr"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/psqlbuilder"
)

var columns = []string{"id", "username", "email", "password_hash", "is_active", "created_at"}

// Repository репозиторий операторов станций
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория операторов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет учётную запись оператора
func (r *Repository) Create(ctx context.Context, op *domain.Operator) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("operators").
		Columns(columns...).
		Values(op.ID, op.Username, op.Email, op.PasswordHash, op.IsActive, op.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		if pgerr.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicate, op.Username)
		}
		return fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}
	return nil
}

// GetByID получает оператора по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Operator, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From("operators").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var op domain.Operator
	err = executor.QueryRowContext(ctx, query, args...).
		Scan(&op.ID, &op.Username, &op.Email, &op.PasswordHash, &op.IsActive, &op.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOperatorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan operator: %v", ErrScanRow, err)
	}
	return &op, nil
}

// List возвращает всех операторов, упорядоченных по username
func (r *Repository) List(ctx context.Context) ([]*domain.Operator, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From("operators").
		OrderBy("username ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	operators := make([]*domain.Operator, 0)
	for rows.Next() {
		var op domain.Operator
		if err := rows.Scan(&op.ID, &op.Username, &op.Email, &op.PasswordHash, &op.IsActive, &op.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: List - scan operator: %v", ErrScanRow, err)
		}
		operators = append(operators, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - rows iteration: %v", ErrScanRow, err)
	}
	return operators, nil
}

// SetActive включает или выключает учётную запись
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("operators").
		Set("is_active", active).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: SetActive - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: SetActive - execute update: %w", ErrExecQuery, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: SetActive - rows affected: %v", ErrExecQuery, err)
	}
	if affected == 0 {
		return ErrOperatorNotFound
	}
	return nil
}
