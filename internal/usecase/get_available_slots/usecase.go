package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	stationRepo "github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/station"
	"github.com/m04kA/SMC-ChargingBookingService/internal/policy"
)

// UseCase use case для получения доступности станции на день
type UseCase struct {
	stationRepo  StationRepository
	slotRepo     SlotRepository
	schedule     ScheduleEnsurer
	rules        domain.BookingRules
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	stationRepo StationRepository,
	slotRepo SlotRepository,
	schedule ScheduleEnsurer,
	rules domain.BookingRules,
	timeProvider TimeProvider,
	logger Logger,
) *UseCase {
	return &UseCase{
		stationRepo:  stationRepo,
		slotRepo:     slotRepo,
		schedule:     schedule,
		rules:        rules,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Execute выполняет use case получения доступных окон
func (uc *UseCase) Execute(ctx context.Context, actor domain.Actor, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: actor=%s, station=%s, date=%s, duration=%d",
		actor.ID, req.StationID, req.Date.Format(domain.DateFormat), req.DurationMinutes)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}
	if req.DurationMinutes > 0 {
		if err := uc.rules.ValidateDuration(req.DurationMinutes); err != nil {
			return nil, err
		}
	}

	// 2. Получаем станцию
	station, err := uc.stationRepo.GetByID(ctx, req.StationID)
	if err != nil {
		if errors.Is(err, stationRepo.ErrStationNotFound) {
			uc.logger.Warn("GetAvailableSlots: station id=%s not found", req.StationID)
			return nil, ErrStationNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get station id=%s: %v", req.StationID, err)
		return nil, fmt.Errorf("%w: failed to get station: %v", ErrInternal, err)
	}

	if err := policy.Authorize(actor, policy.ActionViewStation, policy.Resource{Station: station}).Err(); err != nil {
		return nil, err
	}

	// 3. День по времени станции
	now := uc.timeProvider.Now()
	loc := station.Loc()
	day := time.Date(req.Date.Year(), req.Date.Month(), req.Date.Day(), 0, 0, 0, 0, loc)
	if err := validateDate(day, now, uc.rules.MaxAdvance); err != nil {
		uc.logger.Warn("GetAvailableSlots: date validation failed: %v", err)
		return nil, err
	}

	// 4. Достраиваем день, если он ещё не покрыт расписанием
	if station.IsActive {
		err := uc.schedule.RunExclusive(ctx, station.ID, func(txCtx context.Context) error {
			_, err := uc.schedule.EnsureDay(txCtx, station, now, day)
			return err
		})
		if err != nil {
			uc.logger.Warn("GetAvailableSlots: failed to extend schedule for station id=%s: %v", station.ID, err)
		}
	}

	// 5. Слоты дня
	from, to := day, day.AddDate(0, 0, 1)
	daySlots, err := uc.slotRepo.List(ctx, domain.SlotFilter{StationID: station.ID, From: &from, To: &to})
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to list slots for station id=%s: %v", station.ID, err)
		return nil, fmt.Errorf("%w: failed to list slots: %v", ErrInternal, err)
	}

	// 6. Считаем свободные сокеты по окнам
	windows := buildWindows(station, daySlots, req.DurationMinutes, now, now.Add(uc.rules.MaxAdvance))

	uc.logger.Info("GetAvailableSlots: station=%s date=%s, %d windows",
		station.ID, day.Format(domain.DateFormat), len(windows))

	return &Response{
		StationID:     station.ID,
		Date:          day,
		Timezone:      station.Timezone,
		StationActive: station.IsActive,
		Slots:         windows,
	}, nil
}
