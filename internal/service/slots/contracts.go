package slots

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	InsertIfAbsent(ctx context.Context, slots []*domain.Slot) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Slot, error)
	List(ctx context.Context, filter domain.SlotFilter) ([]*domain.Slot, error)
	ListSocketRange(ctx context.Context, stationID uuid.UUID, socket int, from, to time.Time) ([]*domain.Slot, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*domain.Slot, error)
	ListRange(ctx context.Context, stationID uuid.UUID, from, to time.Time) ([]*domain.Slot, error)
	ListHeldOverlapping(ctx context.Context, stationID uuid.UUID, from, to time.Time) ([]*domain.Slot, error)
	Reserve(ctx context.Context, ids []uuid.UUID, bookingID uuid.UUID) (int64, error)
	ReleaseByBooking(ctx context.Context, bookingID uuid.UUID) (int64, error)
	DeleteAvailable(ctx context.Context, ids []uuid.UUID) (int64, error)
	DeleteAvailableFrom(ctx context.Context, stationID uuid.UUID, from time.Time) (int64, error)
	DeleteByStation(ctx context.Context, stationID uuid.UUID) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker блокировка станции на время резервирования
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// Metrics счётчик конфликтов резервирования
type Metrics interface {
	IncConflict(reason string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
