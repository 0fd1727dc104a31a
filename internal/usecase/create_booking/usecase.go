package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/booking"
	stationRepo "github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/station"
	ownerClient "github.com/m04kA/SMC-ChargingBookingService/internal/integrations/ownerservice"
	"github.com/m04kA/SMC-ChargingBookingService/internal/policy"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/slots"
)

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo  BookingRepository
	stationRepo  StationRepository
	allocator    SlotAllocator
	owners       OwnerDirectory
	publisher    EventPublisher
	metrics      Metrics
	rules        domain.BookingRules
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case. owners может быть nil, тогда
// проверка владельца по каталогу не выполняется.
func NewUseCase(
	bookingRepo BookingRepository,
	stationRepo StationRepository,
	allocator SlotAllocator,
	owners OwnerDirectory,
	publisher EventPublisher,
	metrics Metrics,
	rules domain.BookingRules,
	timeProvider TimeProvider,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		stationRepo:  stationRepo,
		allocator:    allocator,
		owners:       owners,
		publisher:    publisher,
		metrics:      metrics,
		rules:        rules,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Execute выполняет use case создания бронирования.
// Резервирование слотов и вставка бронирования идут под блокировкой станции
// в одной сериализуемой транзакции.
func (uc *UseCase) Execute(ctx context.Context, actor domain.Actor, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: actor=%s, owner=%s, station=%s, slot=%s, start=%s, duration=%d",
		actor.ID, req.OwnerNIC, req.StationID, req.SlotID, req.ReservationDateTime.UTC().Format(time.RFC3339), req.DurationMinutes)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Проверка прав: владелец бронирует только для себя, back-office за любого
	if err := policy.Authorize(actor, policy.ActionCreateBooking, policy.Resource{OwnerNIC: req.OwnerNIC}).Err(); err != nil {
		uc.logger.Warn("CreateBooking: %v", err)
		return nil, err
	}

	// 3. Временные ограничения
	now := uc.timeProvider.Now()
	if err := uc.rules.ValidateDuration(req.DurationMinutes); err != nil {
		uc.logger.Warn("CreateBooking: %v", err)
		return nil, err
	}
	if !req.ReservationDateTime.IsZero() {
		if err := uc.rules.ValidateStart(now, req.ReservationDateTime); err != nil {
			uc.logger.Warn("CreateBooking: %v", err)
			return nil, err
		}
	}

	// 4. Станция
	station, err := uc.stationRepo.GetByID(ctx, req.StationID)
	if err != nil {
		if errors.Is(err, stationRepo.ErrStationNotFound) {
			uc.logger.Warn("CreateBooking: station id=%s not found", req.StationID)
			return nil, ErrStationNotFound
		}
		uc.logger.Error("CreateBooking: failed to get station id=%s: %v", req.StationID, err)
		return nil, fmt.Errorf("%w: failed to get station: %v", ErrInternal, err)
	}
	if !station.IsActive {
		uc.logger.Warn("CreateBooking: station id=%s is inactive", station.ID)
		return nil, ErrStationInactive
	}

	// 5. Владелец EV
	if err := uc.ensureOwner(ctx, req.OwnerNIC); err != nil {
		return nil, err
	}

	// 6. Резервирование и вставка
	var result *Response
	bookingID := uuid.New()
	err = uc.allocator.RunExclusive(ctx, station.ID, func(txCtx context.Context) error {
		if !req.ReservationDateTime.IsZero() {
			if _, err := uc.allocator.EnsureDay(txCtx, station, now, req.ReservationDateTime); err != nil {
				return err
			}
		}

		slotID := req.SlotID
		if slotID == uuid.Nil {
			slot, err := uc.allocator.FindSlotAt(txCtx, station, req.ReservationDateTime, req.DurationMinutes)
			if err != nil {
				return err
			}
			slotID = slot.ID
		}

		reserved, err := uc.allocator.Reserve(txCtx, station, slotID, req.ReservationDateTime, req.DurationMinutes, bookingID)
		if err != nil {
			return err
		}

		start := req.ReservationDateTime
		if start.IsZero() {
			start = reserved[0].StartTime
		}
		if err := uc.rules.ValidateStart(now, start); err != nil {
			return err
		}

		booking := &domain.Booking{
			ID:                  bookingID,
			Reference:           domain.NewBookingReference(start),
			OwnerNIC:            req.OwnerNIC,
			StationID:           station.ID,
			SlotID:              reserved[0].ID,
			ReservationDateTime: start,
			DurationMinutes:     req.DurationMinutes,
			Status:              domain.StatusPending,
			CreatedBy:           actor.ID,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := uc.bookingRepo.Create(txCtx, booking); err != nil {
			if errors.Is(err, bookingRepo.ErrDuplicateReference) {
				// новая попытка сгенерирует другой reference
				return fmt.Errorf("%w: %v", slots.ErrContention, err)
			}
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		result = &Response{Booking: booking, Slots: reserved}
		return nil
	})
	if err != nil {
		uc.logger.Warn("CreateBooking: owner=%s station=%s not booked: %v", req.OwnerNIC, station.ID, err)
		return nil, err
	}

	uc.notify(ctx, result.Booking, actor)
	uc.logger.Info("CreateBooking: successfully created booking id=%s ref=%s", result.Booking.ID, result.Booking.Reference)
	return result, nil
}

// ensureOwner проверяет владельца по каталогу. Недоступный каталог не блокирует бронирование.
func (uc *UseCase) ensureOwner(ctx context.Context, nic string) error {
	if uc.owners == nil {
		return nil
	}

	err := uc.owners.EnsureActive(ctx, nic)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ownerClient.ErrOwnerNotFound):
		uc.logger.Warn("CreateBooking: ev owner nic=%s not found", nic)
		return ErrOwnerNotFound
	case errors.Is(err, ownerClient.ErrOwnerInactive):
		uc.logger.Warn("CreateBooking: ev owner nic=%s is inactive", nic)
		return ErrOwnerInactive
	default:
		uc.logger.Warn("CreateBooking: owner check skipped for nic=%s: %v", nic, err)
		return nil
	}
}

func (uc *UseCase) notify(ctx context.Context, b *domain.Booking, actor domain.Actor) {
	uc.metrics.IncTransition("New", string(b.Status))

	event := domain.BookingStatusChanged{
		BookingID:  b.ID,
		Reference:  b.Reference,
		StationID:  b.StationID,
		OwnerNIC:   b.OwnerNIC,
		To:         b.Status,
		ActorID:    actor.ID,
		OccurredAt: b.CreatedAt,
	}
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.Error("CreateBooking: failed to publish event for booking id=%s: %v", b.ID, err)
	}
}
