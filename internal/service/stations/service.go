package stations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	stationRepo "github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/station"
	"github.com/m04kA/SMC-ChargingBookingService/internal/policy"
)

// Service справочник станций: конфигурация, расписание, назначение операторов
type Service struct {
	stationRepo  StationRepository
	operatorRepo OperatorRepository
	bookings     BookingCounter
	allocator    SlotAllocator
	hasher       PasswordHasher
	txManager    TransactionManager
	timeProvider TimeProvider
	horizonDays  int
	logger       Logger
}

// NewService создает новый экземпляр сервиса станций
func NewService(
	stationRepo StationRepository,
	operatorRepo OperatorRepository,
	bookings BookingCounter,
	allocator SlotAllocator,
	hasher PasswordHasher,
	txManager TransactionManager,
	timeProvider TimeProvider,
	horizonDays int,
	logger Logger,
) *Service {
	if horizonDays <= 0 {
		horizonDays = domain.DefaultScheduleHorizonDays
	}
	return &Service{
		stationRepo:  stationRepo,
		operatorRepo: operatorRepo,
		bookings:     bookings,
		allocator:    allocator,
		hasher:       hasher,
		txManager:    txManager,
		timeProvider: timeProvider,
		horizonDays:  horizonDays,
		logger:       logger,
	}
}

// Create создаёт станцию и материализует её расписание на горизонт.
// withOperator дополнительно создаёт учётную запись оператора и назначает её станции.
func (s *Service) Create(ctx context.Context, actor domain.Actor, cfg domain.StationConfig, withOperator bool) (*CreateResult, error) {
	s.logger.Info("Create: station name=%q by actor=%s withOperator=%t", cfg.Name, actor.ID, withOperator)

	if err := policy.Authorize(actor, policy.ActionCreateStation, policy.Resource{}).Err(); err != nil {
		s.logger.Warn("Create: %v", err)
		return nil, err
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		s.logger.Warn("Create: invalid configuration: %v", err)
		return nil, err
	}

	now := s.timeProvider.Now()
	station := &domain.Station{
		ID:        uuid.New(),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	station.Apply(cfg)

	result := &CreateResult{Station: station}
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		if withOperator {
			creds, err := s.createOperator(ctx, station, now)
			if err != nil {
				return err
			}
			station.OperatorID = &creds.OperatorID
			result.Credentials = creds
		}

		if err := s.stationRepo.Create(ctx, station); err != nil {
			return fmt.Errorf("%w: Create - insert station: %v", ErrInternal, err)
		}

		if _, err := s.allocator.EnsureSchedule(ctx, station, now); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Create: station name=%q failed: %v", cfg.Name, err)
		return nil, err
	}

	s.logger.Info("Create: station id=%s created", station.ID)
	return result, nil
}

// Update редактирует станцию. Back-office меняет всё; назначенный оператор только isActive.
// Изменение раскладки расписания перестраивает будущие свободные слоты.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, cfg domain.StationConfig) (*domain.Station, error) {
	s.logger.Info("Update: station id=%s by actor=%s", id, actor.ID)

	current, err := s.getStation(ctx, "Update", id)
	if err != nil {
		return nil, err
	}

	if actor.Role != domain.RoleBackoffice {
		if err := policy.Authorize(actor, policy.ActionToggleStation, policy.Resource{Station: current}).Err(); err != nil {
			s.logger.Warn("Update: %v", err)
			return nil, err
		}
		if cfg.IsActive == nil || editsBeyondActive(current, cfg) {
			s.logger.Warn("Update: operator=%s tried a full edit of station id=%s", actor.ID, id)
			return nil, ErrOperatorEditLimited
		}
		return s.setActive(ctx, "Update", id, *cfg.IsActive)
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		s.logger.Warn("Update: invalid configuration for station id=%s: %v", id, err)
		return nil, err
	}

	now := s.timeProvider.Now()
	var updated *domain.Station
	err = s.allocator.RunExclusive(ctx, id, func(ctx context.Context) error {
		station, err := s.stationRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return s.mapStationErr("Update", id, err)
		}

		regenerate := station.ScheduleDiffers(cfg)
		station.Apply(cfg)
		station.UpdatedAt = now
		if err := s.stationRepo.Update(ctx, station); err != nil {
			return s.mapStationErr("Update", id, err)
		}

		if regenerate {
			n, err := s.allocator.Regenerate(ctx, station, now)
			if err != nil {
				return err
			}
			s.logger.Info("Update: station id=%s schedule regenerated, %d slots", id, n)
		}
		updated = station
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Update: station id=%s updated", id)
	return updated, nil
}

// Deactivate закрывает станцию для новых бронирований; существующие остаются в силе
func (s *Service) Deactivate(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Station, error) {
	return s.toggle(ctx, "Deactivate", actor, id, false)
}

// Reactivate снова открывает станцию для бронирований
func (s *Service) Reactivate(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Station, error) {
	return s.toggle(ctx, "Reactivate", actor, id, true)
}

func (s *Service) toggle(ctx context.Context, op string, actor domain.Actor, id uuid.UUID, active bool) (*domain.Station, error) {
	s.logger.Info("%s: station id=%s by actor=%s", op, id, actor.ID)

	station, err := s.getStation(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionToggleStation, policy.Resource{Station: station}).Err(); err != nil {
		s.logger.Warn("%s: %v", op, err)
		return nil, err
	}
	return s.setActive(ctx, op, id, active)
}

func (s *Service) setActive(ctx context.Context, op string, id uuid.UUID, active bool) (*domain.Station, error) {
	var station *domain.Station
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		st, err := s.stationRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return s.mapStationErr(op, id, err)
		}
		st.IsActive = active
		st.UpdatedAt = s.timeProvider.Now()
		if err := s.stationRepo.Update(ctx, st); err != nil {
			return s.mapStationErr(op, id, err)
		}
		station = st
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("%s: station id=%s isActive=%t", op, id, active)
	return station, nil
}

// Delete удаляет станцию вместе со слотами, если у неё нет активных бронирований.
// История бронирований сохраняется.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	s.logger.Info("Delete: station id=%s by actor=%s", id, actor.ID)

	if err := policy.Authorize(actor, policy.ActionDeleteStation, policy.Resource{}).Err(); err != nil {
		s.logger.Warn("Delete: %v", err)
		return err
	}

	err := s.allocator.RunExclusive(ctx, id, func(ctx context.Context) error {
		if _, err := s.stationRepo.GetByIDForUpdate(ctx, id); err != nil {
			return s.mapStationErr("Delete", id, err)
		}

		active, err := s.bookings.CountActiveByStation(ctx, id)
		if err != nil {
			return fmt.Errorf("%w: Delete - count active bookings: %v", ErrInternal, err)
		}
		if active > 0 {
			return fmt.Errorf("%w: %d pending or approved bookings", domain.ErrHasActiveBookings, active)
		}

		if err := s.allocator.DropStation(ctx, id); err != nil {
			return err
		}
		if err := s.stationRepo.Delete(ctx, id); err != nil {
			return s.mapStationErr("Delete", id, err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Delete: station id=%s: %v", id, err)
		return err
	}

	s.logger.Info("Delete: station id=%s deleted", id)
	return nil
}

// Get возвращает станцию со свободными слотами на горизонт расписания
func (s *Service) Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Station, error) {
	s.logger.Info("Get: fetching station id=%s", id)

	station, err := s.getStation(ctx, "Get", id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionViewStation, policy.Resource{Station: station}).Err(); err != nil {
		s.logger.Warn("Get: %v", err)
		return nil, err
	}

	now := s.timeProvider.Now()
	to := now.AddDate(0, 0, s.horizonDays)
	available, err := s.allocator.ListSlots(ctx, domain.SlotFilter{
		StationID:     id,
		From:          &now,
		To:            &to,
		AvailableOnly: true,
	})
	if err != nil {
		return nil, err
	}
	station.AvailableSlots = available
	return station, nil
}

// List возвращает станции по фильтру. EV-владельцы видят только активные станции,
// операторы только свои.
func (s *Service) List(ctx context.Context, actor domain.Actor, filter domain.StationFilter) ([]*domain.Station, error) {
	switch actor.Role {
	case domain.RoleEVOwner:
		filter.ActiveOnly = true
	case domain.RoleStationOperator:
		opID, err := uuid.Parse(actor.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: operator id is not a uuid", domain.ErrForbidden)
		}
		filter.OperatorID = &opID
	case domain.RoleBackoffice:
	default:
		return nil, fmt.Errorf("%w: unknown role", domain.ErrForbidden)
	}

	stations, err := s.stationRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}
	s.logger.Info("List: fetched %d stations for actor=%s", len(stations), actor.ID)
	return stations, nil
}

// MyStations станции, назначенные оператору
func (s *Service) MyStations(ctx context.Context, actor domain.Actor) ([]*domain.Station, error) {
	if actor.Role != domain.RoleStationOperator {
		return nil, fmt.Errorf("%w: only station operators have assigned stations", domain.ErrForbidden)
	}
	return s.List(ctx, actor, domain.StationFilter{})
}

// ListSlots слоты станции в интервале
func (s *Service) ListSlots(ctx context.Context, actor domain.Actor, q SlotQuery) ([]*domain.Slot, error) {
	station, err := s.getStation(ctx, "ListSlots", q.StationID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionViewStation, policy.Resource{Station: station}).Err(); err != nil {
		return nil, err
	}

	from := q.From
	if from == nil {
		now := s.timeProvider.Now()
		from = &now
	}
	to := q.To
	if to == nil {
		end := from.AddDate(0, 0, s.horizonDays)
		to = &end
	}
	if !from.Before(*to) {
		return nil, fmt.Errorf("%w: from must be before to", domain.ErrValidation)
	}

	return s.allocator.ListSlots(ctx, domain.SlotFilter{
		StationID:     q.StationID,
		From:          from,
		To:            to,
		AvailableOnly: q.AvailableOnly,
	})
}

// RefreshSchedules продлевает расписание всех активных станций на горизонт.
// Возвращает число новых слотов.
func (s *Service) RefreshSchedules(ctx context.Context) (int64, error) {
	stations, err := s.stationRepo.List(ctx, domain.StationFilter{ActiveOnly: true})
	if err != nil {
		return 0, fmt.Errorf("%w: RefreshSchedules - list stations: %v", ErrInternal, err)
	}

	now := s.timeProvider.Now()
	var total int64
	for _, station := range stations {
		var inserted int64
		err := s.allocator.RunExclusive(ctx, station.ID, func(ctx context.Context) error {
			n, err := s.allocator.EnsureSchedule(ctx, station, now)
			inserted = n
			return err
		})
		if err != nil {
			s.logger.Error("RefreshSchedules: station id=%s: %v", station.ID, err)
			continue
		}
		total += inserted
	}
	s.logger.Info("RefreshSchedules: %d stations, %d new slots", len(stations), total)
	return total, nil
}

// RunScheduleRefresher вызывает RefreshSchedules каждые interval до отмены ctx
func (s *Service) RunScheduleRefresher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RefreshSchedules(ctx); err != nil {
				s.logger.Error("RunScheduleRefresher: %v", err)
			}
		}
	}
}

func (s *Service) getStation(ctx context.Context, op string, id uuid.UUID) (*domain.Station, error) {
	station, err := s.stationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapStationErr(op, id, err)
	}
	return station, nil
}

func (s *Service) mapStationErr(op string, id uuid.UUID, err error) error {
	if errors.Is(err, stationRepo.ErrStationNotFound) {
		s.logger.Warn("%s: station id=%s not found", op, id)
		return fmt.Errorf("%w: %s", ErrStationNotFound, id)
	}
	s.logger.Error("%s: repository error for station id=%s: %v", op, id, err)
	return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
}

// editsBeyondActive сообщает, меняет ли cfg что-то кроме isActive. Пустые поля не считаются.
func editsBeyondActive(st *domain.Station, cfg domain.StationConfig) bool {
	return (cfg.Name != "" && cfg.Name != st.Name) ||
		(cfg.Type != "" && cfg.Type != st.Type) ||
		(cfg.Location != domain.Location{} && cfg.Location != st.Location) ||
		(cfg.TotalSockets != 0 && cfg.TotalSockets != st.TotalSockets) ||
		(cfg.SlotsPerDay != 0 && cfg.SlotsPerDay != st.SlotsPerDay) ||
		(!cfg.OpenTime.IsZero() && cfg.OpenTime != st.OpenTime) ||
		(!cfg.CloseTime.IsZero() && cfg.CloseTime != st.CloseTime) ||
		(cfg.Timezone != "" && cfg.Timezone != st.Timezone)
}
