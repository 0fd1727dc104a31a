package verification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/booking"
	stationRepo "github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/station"
	tokenRepo "github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/token"
	"github.com/m04kA/SMC-ChargingBookingService/internal/policy"
)

// Результаты погашения для метрик
const (
	resultRedeemed = "redeemed"
	resultReplay   = "replay"
	resultRejected = "rejected"
	resultInvalid  = "invalid"
)

// Service выпуск, проверка и погашение одноразовых токенов подтверждения
type Service struct {
	tokenRepo    TokenRepository
	bookingRepo  BookingRepository
	stationRepo  StationRepository
	completer    BookingCompleter
	signer       *Signer
	txManager    TransactionManager
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса токенов
func NewService(
	tokenRepo TokenRepository,
	bookingRepo BookingRepository,
	stationRepo StationRepository,
	completer BookingCompleter,
	signer *Signer,
	txManager TransactionManager,
	metrics Metrics,
	timeProvider TimeProvider,
	logger Logger,
) *Service {
	return &Service{
		tokenRepo:    tokenRepo,
		bookingRepo:  bookingRepo,
		stationRepo:  stationRepo,
		completer:    completer,
		signer:       signer,
		txManager:    txManager,
		metrics:      metrics,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// inspection разобранный токен вместе с записью и бронированием
type inspection struct {
	tokenID uuid.UUID
	record  *domain.VerificationToken
	booking *domain.Booking
	station *domain.Station
}

// Issue выпускает токен для подтверждённого бронирования.
// Ранее выпущенные и ещё не погашенные токены бронирования отзываются.
func (s *Service) Issue(ctx context.Context, actor domain.Actor, bookingID uuid.UUID) (*domain.IssuedToken, error) {
	s.logger.Info("Issue: booking id=%s by actor=%s", bookingID, actor.ID)

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("Issue: booking id=%s not found", bookingID)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("Issue: failed to get booking id=%s: %v", bookingID, err)
		return nil, fmt.Errorf("%w: Issue - get booking: %v", ErrInternal, err)
	}
	station, err := s.station(ctx, "Issue", booking.StationID)
	if err != nil {
		return nil, err
	}

	if err := policy.Authorize(actor, policy.ActionIssueToken, policy.Resource{Station: station, Booking: booking}).Err(); err != nil {
		s.logger.Warn("Issue: access denied for actor=%s to booking id=%s", actor.ID, bookingID)
		return nil, err
	}

	if booking.Status != domain.StatusApproved {
		return nil, fmt.Errorf("%w: tokens are issued for approved bookings only, booking is %s",
			domain.ErrInvalidTransition, booking.Status)
	}
	now := s.timeProvider.Now()
	if !now.Before(booking.End()) {
		return nil, fmt.Errorf("%w: reservation has already ended", domain.ErrInvalidTransition)
	}

	record := &domain.VerificationToken{
		ID:        uuid.New(),
		BookingID: booking.ID,
		IssuedAt:  now,
		ExpiresAt: booking.End(),
	}
	signed, err := s.signer.Sign(record.ID, booking, now)
	if err != nil {
		s.logger.Error("Issue: failed to sign token for booking id=%s: %v", bookingID, err)
		return nil, fmt.Errorf("%w: Issue - sign: %v", ErrInternal, err)
	}

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		revoked, err := s.tokenRepo.RevokeByBooking(ctx, booking.ID, now)
		if err != nil {
			return fmt.Errorf("%w: Issue - revoke previous tokens: %v", ErrInternal, err)
		}
		if revoked > 0 {
			s.logger.Info("Issue: revoked %d previous tokens of booking id=%s", revoked, booking.ID)
		}
		if err := s.tokenRepo.Create(ctx, record); err != nil {
			return fmt.Errorf("%w: Issue - store token: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Issue: booking id=%s: %v", bookingID, err)
		return nil, err
	}

	s.logger.Info("Issue: token jti=%s issued for booking id=%s, expires %s", record.ID, booking.ID, record.ExpiresAt)
	return &domain.IssuedToken{Token: signed, ExpiresAt: record.ExpiresAt, Booking: booking}, nil
}

// Validate проверяет токен без погашения. Доступно оператору станции и back-office.
func (s *Service) Validate(ctx context.Context, actor domain.Actor, raw string) (*domain.TokenSnapshot, error) {
	ins, err := s.inspect(ctx, "Validate", raw)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, policy.ActionValidateToken, ins); err != nil {
		s.logger.Warn("Validate: access denied for actor=%s to booking id=%s", actor.ID, ins.booking.ID)
		return nil, err
	}
	if err := checkState(ins); err != nil {
		s.logger.Info("Validate: token jti=%s rejected: %v", ins.tokenID, err)
		return nil, err
	}

	return &domain.TokenSnapshot{TokenID: ins.tokenID, ExpiresAt: ins.record.ExpiresAt, Booking: ins.booking}, nil
}

// ValidateQR то же, что Validate, но проблемы с самим токеном возвращает
// как невалидный результат с сообщением, а не ошибкой
func (s *Service) ValidateQR(ctx context.Context, actor domain.Actor, raw string) (*QRCheck, error) {
	snapshot, err := s.Validate(ctx, actor, raw)
	switch {
	case err == nil:
		return &QRCheck{IsValid: true, Snapshot: snapshot}, nil
	case errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrTokenAlreadyRedeemed),
		errors.Is(err, domain.ErrBookingNoLongerApprovable):
		return &QRCheck{IsValid: false, ErrorCode: domain.ErrorCode(err), ErrorMessage: messageFor(err)}, nil
	default:
		return nil, err
	}
}

// Redeem гасит токен и завершает бронирование в одной транзакции.
// expectedBookingID, если задан, должен совпадать с бронированием токена.
func (s *Service) Redeem(ctx context.Context, actor domain.Actor, raw string, expectedBookingID *uuid.UUID) (*domain.Booking, error) {
	ins, err := s.inspect(ctx, "Redeem", raw)
	if err != nil {
		s.metrics.IncRedemption(resultInvalid)
		return nil, err
	}
	s.logger.Info("Redeem: token jti=%s booking id=%s by actor=%s", ins.tokenID, ins.booking.ID, actor.ID)

	if err := s.authorize(actor, policy.ActionRedeemToken, ins); err != nil {
		s.logger.Warn("Redeem: access denied for actor=%s to booking id=%s", actor.ID, ins.booking.ID)
		return nil, err
	}
	if expectedBookingID != nil && *expectedBookingID != ins.booking.ID {
		s.metrics.IncRedemption(resultInvalid)
		return nil, ErrWrongBooking
	}
	if err := checkState(ins); err != nil {
		s.observeRejection(err)
		return nil, err
	}

	now := s.timeProvider.Now()
	var completed *domain.Booking
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.tokenRepo.Redeem(ctx, ins.tokenID, now); err != nil {
			if errors.Is(err, tokenRepo.ErrNotRedeemable) {
				return s.explainNotRedeemable(ctx, ins.tokenID)
			}
			return fmt.Errorf("%w: Redeem - consume token: %v", ErrInternal, err)
		}

		b, err := s.completer.Complete(ctx, domain.RedemptionProof{
			TokenID:    ins.tokenID,
			BookingID:  ins.booking.ID,
			RedeemedAt: now,
			RedeemedBy: actor.ID,
		})
		if err != nil {
			if errors.Is(err, domain.ErrInvalidTransition) {
				return fmt.Errorf("%w: %v", ErrNotApproved, err)
			}
			return err
		}
		completed = b
		return nil
	})
	if err != nil {
		s.observeRejection(err)
		s.logger.Warn("Redeem: token jti=%s not redeemed: %v", ins.tokenID, err)
		return nil, err
	}

	s.metrics.IncRedemption(resultRedeemed)
	s.logger.Info("Redeem: token jti=%s redeemed, booking id=%s completed", ins.tokenID, completed.ID)
	return completed, nil
}

// Вспомогательные методы

func (s *Service) inspect(ctx context.Context, op, raw string) (*inspection, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: token is required", ErrMalformedToken)
	}

	id, claims, err := s.signer.Parse(raw, s.timeProvider.Now())
	if err != nil {
		s.logger.Info("%s: token rejected: %v", op, err)
		return nil, err
	}

	record, err := s.tokenRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, tokenRepo.ErrTokenNotFound) {
			s.logger.Warn("%s: token jti=%s has no record", op, id)
			return nil, ErrUnknownToken
		}
		s.logger.Error("%s: failed to get token jti=%s: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - get token: %v", ErrInternal, op, err)
	}
	if record.BookingID.String() != claims.BookingID {
		s.logger.Warn("%s: token jti=%s claims booking %s, record says %s", op, id, claims.BookingID, record.BookingID)
		return nil, ErrMalformedToken
	}

	booking, err := s.bookingRepo.GetByID(ctx, record.BookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, ErrNotApproved
		}
		s.logger.Error("%s: failed to get booking id=%s: %v", op, record.BookingID, err)
		return nil, fmt.Errorf("%w: %s - get booking: %v", ErrInternal, op, err)
	}

	station, err := s.station(ctx, op, booking.StationID)
	if err != nil {
		return nil, err
	}
	return &inspection{tokenID: id, record: record, booking: booking, station: station}, nil
}

// station возвращает станцию бронирования или nil, если её уже удалили
func (s *Service) station(ctx context.Context, op string, id uuid.UUID) (*domain.Station, error) {
	station, err := s.stationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, stationRepo.ErrStationNotFound) {
			return nil, nil
		}
		s.logger.Error("%s: failed to get station id=%s: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - get station: %v", ErrInternal, op, err)
	}
	return station, nil
}

func (s *Service) authorize(actor domain.Actor, action policy.Action, ins *inspection) error {
	return policy.Authorize(actor, action, policy.Resource{Station: ins.station, Booking: ins.booking}).Err()
}

// explainNotRedeemable уточняет, почему условное погашение не сработало
func (s *Service) explainNotRedeemable(ctx context.Context, id uuid.UUID) error {
	record, err := s.tokenRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: Redeem - reread token: %v", ErrInternal, err)
	}
	if record.IsRevoked() && !record.IsRedeemed() {
		return ErrRevoked
	}
	return ErrAlreadyRedeemed
}

func (s *Service) observeRejection(err error) {
	switch {
	case errors.Is(err, domain.ErrTokenAlreadyRedeemed):
		s.metrics.IncRedemption(resultReplay)
	case errors.Is(err, domain.ErrBookingNoLongerApprovable), errors.Is(err, domain.ErrInvalidToken):
		s.metrics.IncRedemption(resultRejected)
	}
}

// checkState проверяет запись токена и статус бронирования
func checkState(ins *inspection) error {
	switch {
	case ins.record.IsRedeemed():
		return ErrAlreadyRedeemed
	case ins.record.IsRevoked():
		return ErrRevoked
	case ins.booking.Status == domain.StatusCompleted:
		return ErrAlreadyRedeemed
	case ins.booking.Status != domain.StatusApproved:
		return ErrNotApproved
	}
	return nil
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "QR code has expired"
	case errors.Is(err, domain.ErrInvalidToken):
		return "QR code is not valid"
	case errors.Is(err, domain.ErrTokenAlreadyRedeemed):
		return "QR code has already been used"
	case errors.Is(err, ErrRevoked):
		return "QR code was revoked, the booking has changed"
	default:
		return "booking is no longer approved"
	}
}
