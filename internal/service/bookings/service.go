package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/booking"
	stationRepo "github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/station"
	"github.com/m04kA/SMC-ChargingBookingService/internal/policy"
)

// Service конечный автомат бронирований
type Service struct {
	bookingRepo  BookingRepository
	stationRepo  StationRepository
	allocator    SlotAllocator
	tokens       TokenRevoker
	publisher    EventPublisher
	metrics      Metrics
	txManager    TransactionManager
	rules        domain.BookingRules
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	stationRepo StationRepository,
	allocator SlotAllocator,
	tokens TokenRevoker,
	publisher EventPublisher,
	metrics Metrics,
	txManager TransactionManager,
	rules domain.BookingRules,
	timeProvider TimeProvider,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		stationRepo:  stationRepo,
		allocator:    allocator,
		tokens:       tokens,
		publisher:    publisher,
		metrics:      metrics,
		txManager:    txManager,
		rules:        rules,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// GetByID возвращает бронирование, если actor имеет к нему доступ
func (s *Service) GetByID(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Booking, error) {
	s.logger.Info("GetByID: fetching booking id=%s for actor=%s", id, actor.ID)

	booking, station, err := s.load(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, policy.ActionViewBooking, station, booking); err != nil {
		s.logger.Warn("GetByID: access denied for actor=%s to booking id=%s", actor.ID, id)
		return nil, err
	}
	return booking, nil
}

// List возвращает бронирования по фильтру в пределах прав actor:
// владелец видит только свои, оператор только бронирования своих станций.
func (s *Service) List(ctx context.Context, actor domain.Actor, filter domain.BookingFilter) ([]*domain.Booking, error) {
	s.logger.Info("List: fetching bookings for actor=%s role=%s", actor.ID, actor.Role)

	switch actor.Role {
	case domain.RoleEVOwner:
		nic := actor.ID
		if filter.OwnerNIC != nil {
			nic = *filter.OwnerNIC
		}
		if err := policy.Authorize(actor, policy.ActionListBookings, policy.Resource{OwnerNIC: nic}).Err(); err != nil {
			return nil, err
		}
		filter.OwnerNIC = &nic

	case domain.RoleStationOperator:
		if filter.StationID != nil {
			station, err := s.stationRepo.GetByID(ctx, *filter.StationID)
			if err != nil {
				return nil, s.mapStationErr("List", *filter.StationID, err)
			}
			if err := policy.Authorize(actor, policy.ActionListBookings, policy.Resource{Station: station}).Err(); err != nil {
				return nil, err
			}
			break
		}
		ids, err := s.operatorStations(ctx, actor)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []*domain.Booking{}, nil
		}
		filter.StationIDs = ids

	case domain.RoleBackoffice:
	default:
		return nil, policy.Authorize(actor, policy.ActionListBookings, policy.Resource{}).Err()
	}

	bookings, err := s.bookingRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("List: fetched %d bookings for actor=%s", len(bookings), actor.ID)
	return bookings, nil
}

// Upcoming активные бронирования владельца, начинающиеся после текущего момента
func (s *Service) Upcoming(ctx context.Context, actor domain.Actor, nic string) ([]*domain.Booking, error) {
	now := s.timeProvider.Now()
	all, err := s.List(ctx, actor, domain.BookingFilter{OwnerNIC: &nic, From: &now})
	if err != nil {
		return nil, err
	}

	upcoming := make([]*domain.Booking, 0, len(all))
	for _, b := range all {
		if b.IsActive() {
			upcoming = append(upcoming, b)
		}
	}
	return upcoming, nil
}

// CanModify сообщает, можно ли ещё изменить или отменить бронирование
func (s *Service) CanModify(ctx context.Context, actor domain.Actor, id uuid.UUID) (domain.ModifyCheck, error) {
	booking, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return domain.ModifyCheck{}, err
	}

	now := s.timeProvider.Now()
	check := domain.ModifyCheck{Deadline: booking.ModificationDeadline(s.rules.ModificationCutoff)}
	switch {
	case !booking.IsActive():
		check.Reason = fmt.Sprintf("booking is %s", booking.Status)
	case !now.Before(check.Deadline):
		check.Reason = fmt.Sprintf("changes are only allowed until %d hours before the reservation",
			int(s.rules.ModificationCutoff.Hours()))
	default:
		check.CanModify = true
	}
	return check, nil
}

// Approve подтверждает ожидающее бронирование. Доступно назначенному оператору и back-office.
func (s *Service) Approve(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Booking, error) {
	s.logger.Info("Approve: booking id=%s by actor=%s", id, actor.ID)

	booking, station, err := s.load(ctx, "Approve", id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, policy.ActionApproveBooking, station, booking); err != nil {
		s.logger.Warn("Approve: access denied for actor=%s to booking id=%s", actor.ID, id)
		return nil, err
	}
	if booking.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: cannot approve a %s booking", domain.ErrInvalidTransition, booking.Status)
	}

	now := s.timeProvider.Now()
	booking.Status = domain.StatusApproved
	booking.ApprovedAt = &now
	booking.UpdatedAt = now
	if err := s.save(ctx, "Approve", booking, domain.StatusPending); err != nil {
		return nil, err
	}

	s.notify(ctx, booking, domain.StatusPending, actor)
	s.logger.Info("Approve: booking id=%s approved", id)
	return booking, nil
}

// Update переносит бронирование: освобождает старые слоты и занимает новые в одной
// транзакции. При ошибке старое резервирование остаётся в силе.
// Перенос подтверждённого бронирования возвращает его в Pending и отзывает токены.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, changes domain.BookingChanges) (*domain.Booking, error) {
	s.logger.Info("Update: booking id=%s by actor=%s", id, actor.ID)

	booking, station, err := s.load(ctx, "Update", id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, policy.ActionUpdateBooking, station, booking); err != nil {
		s.logger.Warn("Update: access denied for actor=%s to booking id=%s", actor.ID, id)
		return nil, err
	}

	now := s.timeProvider.Now()
	if err := s.rules.CheckModifiable(now, booking); err != nil {
		s.logger.Warn("Update: booking id=%s: %v", id, err)
		return nil, err
	}
	if !booking.IsActive() {
		return nil, fmt.Errorf("%w: cannot update a %s booking", domain.ErrInvalidTransition, booking.Status)
	}
	if changes.IsEmpty() {
		return nil, ErrNoChanges
	}
	if station == nil {
		return nil, fmt.Errorf("%w: station of active booking %s is missing", ErrInternal, id)
	}
	if !station.IsActive {
		return nil, fmt.Errorf("%w: station %s does not accept new reservations", domain.ErrStationInactive, station.ID)
	}

	duration := booking.DurationMinutes
	if changes.DurationMinutes != nil {
		duration = *changes.DurationMinutes
	}
	if err := s.rules.ValidateDuration(duration); err != nil {
		return nil, err
	}

	var (
		slotID uuid.UUID
		start  time.Time
	)
	switch {
	case changes.SlotID != nil:
		slotID = *changes.SlotID
		if changes.ReservationDateTime != nil {
			start = *changes.ReservationDateTime
		}
	case changes.ReservationDateTime != nil:
		start = *changes.ReservationDateTime
	default:
		slotID = booking.SlotID
		start = booking.ReservationDateTime
	}
	if !start.IsZero() {
		if err := s.rules.ValidateStart(now, start); err != nil {
			return nil, err
		}
	}

	previous := booking.Status
	var updated *domain.Booking
	err = s.allocator.RunExclusive(ctx, station.ID, func(ctx context.Context) error {
		current, err := s.bookingRepo.GetByID(ctx, id)
		if err != nil {
			return s.mapBookingErr("Update", id, err)
		}
		if current.Status != previous {
			return ErrConcurrentChange
		}

		if _, err := s.allocator.Release(ctx, id); err != nil {
			return err
		}

		if !start.IsZero() {
			if _, err := s.allocator.EnsureDay(ctx, station, now, start); err != nil {
				return err
			}
		}

		target := slotID
		if target == uuid.Nil {
			slot, err := s.allocator.FindSlotAt(ctx, station, start, duration)
			if err != nil {
				return err
			}
			target = slot.ID
		}

		reserved, err := s.allocator.Reserve(ctx, station, target, start, duration, id)
		if err != nil {
			return err
		}
		newStart := start
		if newStart.IsZero() {
			newStart = reserved[0].StartTime
		}
		if err := s.rules.ValidateStart(now, newStart); err != nil {
			return err
		}

		rescheduled := !newStart.Equal(current.ReservationDateTime) ||
			duration != current.DurationMinutes ||
			reserved[0].ID != current.SlotID

		current.SlotID = reserved[0].ID
		current.ReservationDateTime = newStart
		current.DurationMinutes = duration
		current.UpdatedAt = now
		if rescheduled && current.Status == domain.StatusApproved {
			current.Status = domain.StatusPending
			current.ApprovedAt = nil
			revoked, err := s.tokens.RevokeByBooking(ctx, id, now)
			if err != nil {
				return fmt.Errorf("%w: Update - revoke tokens: %v", ErrInternal, err)
			}
			s.logger.Info("Update: booking id=%s back to Pending, %d tokens revoked", id, revoked)
		}

		if err := s.save(ctx, "Update", current, previous); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		s.logger.Warn("Update: booking id=%s not changed: %v", id, err)
		return nil, err
	}

	if updated.Status != previous {
		s.notify(ctx, updated, previous, actor)
	}
	s.logger.Info("Update: booking id=%s now starts %s for %d minutes",
		id, updated.ReservationDateTime.UTC().Format(time.RFC3339), updated.DurationMinutes)
	return updated, nil
}

// Cancel отменяет бронирование: освобождает слоты и отзывает токены
func (s *Service) Cancel(ctx context.Context, actor domain.Actor, id uuid.UUID, reason string) (*domain.Booking, error) {
	s.logger.Info("Cancel: cancelling booking id=%s by actor=%s", id, actor.ID)

	if utf8.RuneCountInString(reason) > domain.MaxCancellationReasonLength {
		return nil, ErrReasonTooLong
	}

	booking, station, err := s.load(ctx, "Cancel", id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, policy.ActionCancelBooking, station, booking); err != nil {
		s.logger.Warn("Cancel: access denied for actor=%s to booking id=%s", actor.ID, id)
		return nil, err
	}

	now := s.timeProvider.Now()
	if err := s.rules.CheckModifiable(now, booking); err != nil {
		s.logger.Warn("Cancel: booking id=%s: %v", id, err)
		return nil, err
	}
	if !booking.Status.CanTransitionTo(domain.StatusCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel a %s booking", domain.ErrInvalidTransition, booking.Status)
	}

	previous := booking.Status
	booking.Status = domain.StatusCancelled
	booking.CancelledAt = &now
	booking.UpdatedAt = now
	if reason != "" {
		booking.CancellationReason = &reason
	}

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.save(ctx, "Cancel", booking, previous); err != nil {
			return err
		}
		released, err := s.allocator.Release(ctx, id)
		if err != nil {
			return err
		}
		revoked, err := s.tokens.RevokeByBooking(ctx, id, now)
		if err != nil {
			return fmt.Errorf("%w: Cancel - revoke tokens: %v", ErrInternal, err)
		}
		s.logger.Info("Cancel: booking id=%s released %d slots, revoked %d tokens", id, released, revoked)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, booking, previous, actor)
	s.logger.Info("Cancel: successfully cancelled booking id=%s", id)
	return booking, nil
}

// Complete завершает подтверждённое бронирование по погашенному токену.
// Слоты остаются занятыми.
func (s *Service) Complete(ctx context.Context, proof domain.RedemptionProof) (*domain.Booking, error) {
	s.logger.Info("Complete: booking id=%s by token=%s", proof.BookingID, proof.TokenID)

	if proof.TokenID == uuid.Nil || proof.RedeemedAt.IsZero() {
		return nil, fmt.Errorf("%w: completion requires a redeemed token", domain.ErrInvalidTransition)
	}

	var booking *domain.Booking
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		b, err := s.bookingRepo.GetByID(ctx, proof.BookingID)
		if err != nil {
			return s.mapBookingErr("Complete", proof.BookingID, err)
		}
		if b.Status != domain.StatusApproved {
			return fmt.Errorf("%w: cannot complete a %s booking", domain.ErrInvalidTransition, b.Status)
		}

		b.Status = domain.StatusCompleted
		b.CompletedAt = &proof.RedeemedAt
		b.UpdatedAt = proof.RedeemedAt
		if err := s.save(ctx, "Complete", b, domain.StatusApproved); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	by := domain.System
	if proof.RedeemedBy != "" {
		by = domain.Actor{ID: proof.RedeemedBy}
	}
	s.notify(ctx, booking, domain.StatusApproved, by)
	s.logger.Info("Complete: booking id=%s completed", booking.ID)
	return booking, nil
}

// Вспомогательные методы

// load читает бронирование и его станцию. Станции может уже не быть, тогда station == nil.
func (s *Service) load(ctx context.Context, op string, id uuid.UUID) (*domain.Booking, *domain.Station, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, s.mapBookingErr(op, id, err)
	}

	station, err := s.stationRepo.GetByID(ctx, booking.StationID)
	if err != nil {
		if errors.Is(err, stationRepo.ErrStationNotFound) {
			return booking, nil, nil
		}
		s.logger.Error("%s: failed to load station id=%s: %v", op, booking.StationID, err)
		return nil, nil, fmt.Errorf("%w: %s - get station: %v", ErrInternal, op, err)
	}
	return booking, station, nil
}

func (s *Service) authorize(actor domain.Actor, action policy.Action, station *domain.Station, booking *domain.Booking) error {
	return policy.Authorize(actor, action, policy.Resource{Station: station, Booking: booking}).Err()
}

func (s *Service) save(ctx context.Context, op string, b *domain.Booking, expected domain.BookingStatus) error {
	if err := s.bookingRepo.Update(ctx, b, expected); err != nil {
		if errors.Is(err, bookingRepo.ErrStatusMismatch) {
			s.logger.Warn("%s: booking id=%s changed concurrently", op, b.ID)
			return ErrConcurrentChange
		}
		s.logger.Error("%s: repository error for booking id=%s: %v", op, b.ID, err)
		return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	return nil
}

func (s *Service) operatorStations(ctx context.Context, actor domain.Actor) ([]uuid.UUID, error) {
	opID, err := uuid.Parse(actor.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: operator id is not a uuid", domain.ErrForbidden)
	}
	stations, err := s.stationRepo.List(ctx, domain.StationFilter{OperatorID: &opID})
	if err != nil {
		return nil, fmt.Errorf("%w: list operator stations: %v", ErrInternal, err)
	}
	ids := make([]uuid.UUID, 0, len(stations))
	for _, st := range stations {
		ids = append(ids, st.ID)
	}
	return ids, nil
}

// notify публикует событие перехода. Ошибка публикации не отменяет операцию.
func (s *Service) notify(ctx context.Context, b *domain.Booking, from domain.BookingStatus, actor domain.Actor) {
	s.metrics.IncTransition(string(from), string(b.Status))

	event := domain.BookingStatusChanged{
		BookingID:  b.ID,
		Reference:  b.Reference,
		StationID:  b.StationID,
		OwnerNIC:   b.OwnerNIC,
		From:       from,
		To:         b.Status,
		ActorID:    actor.ID,
		OccurredAt: s.timeProvider.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("notify: failed to publish %s -> %s for booking id=%s: %v", from, b.Status, b.ID, err)
	}
}

func (s *Service) mapBookingErr(op string, id uuid.UUID, err error) error {
	if errors.Is(err, bookingRepo.ErrBookingNotFound) {
		s.logger.Warn("%s: booking id=%s not found", op, id)
		return fmt.Errorf("%w: %s", ErrBookingNotFound, id)
	}
	s.logger.Error("%s: repository error for booking id=%s: %v", op, id, err)
	return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
}

func (s *Service) mapStationErr(op string, id uuid.UUID, err error) error {
	if errors.Is(err, stationRepo.ErrStationNotFound) {
		return fmt.Errorf("%w: station %s not found", domain.ErrNotFound, id)
	}
	s.logger.Error("%s: repository error for station id=%s: %v", op, id, err)
	return fmt.Errorf("%w: %s - station repository error: %v", ErrInternal, op, err)
}
