package stations

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

// StationRepository интерфейс репозитория станций
type StationRepository interface {
	Create(ctx context.Context, s *domain.Station) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Station, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Station, error)
	List(ctx context.Context, filter domain.StationFilter) ([]*domain.Station, error)
	Update(ctx context.Context, s *domain.Station) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// OperatorRepository интерфейс репозитория операторов
type OperatorRepository interface {
	Create(ctx context.Context, op *domain.Operator) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Operator, error)
	List(ctx context.Context) ([]*domain.Operator, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// BookingCounter считает активные бронирования станции
type BookingCounter interface {
	CountActiveByStation(ctx context.Context, stationID uuid.UUID) (int, error)
}

// SlotAllocator аллокатор слотов
type SlotAllocator interface {
	EnsureSchedule(ctx context.Context, station *domain.Station, now time.Time) (int64, error)
	Regenerate(ctx context.Context, station *domain.Station, now time.Time) (int64, error)
	RunExclusive(ctx context.Context, stationID uuid.UUID, fn func(ctx context.Context) error) error
	ListSlots(ctx context.Context, filter domain.SlotFilter) ([]*domain.Slot, error)
	DropStation(ctx context.Context, stationID uuid.UUID) error
}

// PasswordHasher хэширует сгенерированные пароли операторов
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
