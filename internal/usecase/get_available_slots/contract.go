package get_available_slots

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

// StationRepository интерфейс репозитория станций
type StationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Station, error)
}

// SlotRepository интерфейс чтения слотов
type SlotRepository interface {
	// List слоты станции по фильтру, упорядоченные по времени и сокету
	List(ctx context.Context, filter domain.SlotFilter) ([]*domain.Slot, error)
}

// ScheduleEnsurer достраивает расписание станции на запрошенный день
type ScheduleEnsurer interface {
	RunExclusive(ctx context.Context, stationID uuid.UUID, fn func(ctx context.Context) error) error
	EnsureDay(ctx context.Context, station *domain.Station, now, day time.Time) (int64, error)
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
