package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error)
	Update(ctx context.Context, b *domain.Booking, expected domain.BookingStatus) error
}

// StationRepository чтение станций для проверки прав
type StationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Station, error)
	List(ctx context.Context, filter domain.StationFilter) ([]*domain.Station, error)
}

// SlotAllocator аллокатор слотов
type SlotAllocator interface {
	RunExclusive(ctx context.Context, stationID uuid.UUID, fn func(ctx context.Context) error) error
	Reserve(ctx context.Context, station *domain.Station, firstSlotID uuid.UUID, start time.Time, durationMinutes int, bookingID uuid.UUID) ([]*domain.Slot, error)
	FindSlotAt(ctx context.Context, station *domain.Station, start time.Time, durationMinutes int) (*domain.Slot, error)
	Release(ctx context.Context, bookingID uuid.UUID) (int64, error)
	EnsureDay(ctx context.Context, station *domain.Station, now, day time.Time) (int64, error)
}

// TokenRevoker отзывает токены бронирования
type TokenRevoker interface {
	RevokeByBooking(ctx context.Context, bookingID uuid.UUID, at time.Time) (int64, error)
}

// EventPublisher публикует изменения статусов
type EventPublisher interface {
	Publish(ctx context.Context, event domain.BookingStatusChanged) error
}

// Metrics счётчик переходов
type Metrics interface {
	IncTransition(from, to string)
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
