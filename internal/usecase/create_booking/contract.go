package create_booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
}

// StationRepository интерфейс репозитория станций
type StationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Station, error)
}

// SlotAllocator аллокатор слотов
type SlotAllocator interface {
	RunExclusive(ctx context.Context, stationID uuid.UUID, fn func(ctx context.Context) error) error
	Reserve(ctx context.Context, station *domain.Station, firstSlotID uuid.UUID, start time.Time, durationMinutes int, bookingID uuid.UUID) ([]*domain.Slot, error)
	FindSlotAt(ctx context.Context, station *domain.Station, start time.Time, durationMinutes int) (*domain.Slot, error)
	EnsureDay(ctx context.Context, station *domain.Station, now, day time.Time) (int64, error)
}

// OwnerDirectory интерфейс клиента каталога владельцев EV
type OwnerDirectory interface {
	EnsureActive(ctx context.Context, nic string) error
}

// EventPublisher публикует изменения статусов
type EventPublisher interface {
	Publish(ctx context.Context, event domain.BookingStatusChanged) error
}

// Metrics счётчик переходов
type Metrics interface {
	IncTransition(from, to string)
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
