package verification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

// TokenRepository хранилище записей токенов
type TokenRepository interface {
	Create(ctx context.Context, t *domain.VerificationToken) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.VerificationToken, error)
	Redeem(ctx context.Context, id uuid.UUID, at time.Time) error
	RevokeByBooking(ctx context.Context, bookingID uuid.UUID, at time.Time) (int64, error)
}

// BookingRepository чтение бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
}

// StationRepository чтение станций для проверки прав
type StationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Station, error)
}

// BookingCompleter завершает бронирование по погашенному токену
type BookingCompleter interface {
	Complete(ctx context.Context, proof domain.RedemptionProof) (*domain.Booking, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics счётчик погашений
type Metrics interface {
	IncRedemption(result string)
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
