package stations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	operatorRepo "github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/operator"
	"github.com/m04kA/SMC-ChargingBookingService/internal/policy"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/password"
)

const operatorEmailDomain = "operators.evcharge.local"

// createOperator генерирует учётную запись оператора для новой станции.
// Пароль возвращается в открытом виде один раз, в хранилище попадает только bcrypt хэш.
func (s *Service) createOperator(ctx context.Context, station *domain.Station, now time.Time) (*domain.OperatorCredentials, error) {
	id := uuid.New()
	username := operatorUsername(station.Name, id)
	plain := password.Generate(domain.DefaultOperatorPasswordLength)

	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("%w: createOperator - hash password: %v", ErrInternal, err)
	}

	op := &domain.Operator{
		ID:           id,
		Username:     username,
		Email:        username + "@" + operatorEmailDomain,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
	}
	if err := s.operatorRepo.Create(ctx, op); err != nil {
		if errors.Is(err, operatorRepo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: generated operator username %q is taken, retry", domain.ErrCapacityExceeded, username)
		}
		return nil, fmt.Errorf("%w: createOperator - insert: %v", ErrInternal, err)
	}

	s.logger.Info("createOperator: operator id=%s username=%s generated for station id=%s", id, username, station.ID)
	return &domain.OperatorCredentials{
		OperatorID: id,
		Username:   op.Username,
		Email:      op.Email,
		Password:   plain,
	}, nil
}

// AssignOperator назначает оператора станции
func (s *Service) AssignOperator(ctx context.Context, actor domain.Actor, stationID, operatorID uuid.UUID) (*domain.Station, error) {
	s.logger.Info("AssignOperator: station id=%s operator id=%s by actor=%s", stationID, operatorID, actor.ID)

	if err := policy.Authorize(actor, policy.ActionAssignOperator, policy.Resource{}).Err(); err != nil {
		s.logger.Warn("AssignOperator: %v", err)
		return nil, err
	}

	var station *domain.Station
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		op, err := s.getOperator(ctx, "AssignOperator", operatorID)
		if err != nil {
			return err
		}
		if !op.IsActive {
			return ErrOperatorInactive
		}

		st, err := s.stationRepo.GetByIDForUpdate(ctx, stationID)
		if err != nil {
			return s.mapStationErr("AssignOperator", stationID, err)
		}
		st.OperatorID = &op.ID
		st.UpdatedAt = s.timeProvider.Now()
		if err := s.stationRepo.Update(ctx, st); err != nil {
			return s.mapStationErr("AssignOperator", stationID, err)
		}
		station = st
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("AssignOperator: station id=%s now operated by %s", stationID, operatorID)
	return station, nil
}

// ListOperators все учётные записи операторов
func (s *Service) ListOperators(ctx context.Context, actor domain.Actor) ([]*domain.Operator, error) {
	if err := policy.Authorize(actor, policy.ActionManageOperator, policy.Resource{}).Err(); err != nil {
		return nil, err
	}

	ops, err := s.operatorRepo.List(ctx)
	if err != nil {
		s.logger.Error("ListOperators: repository error: %v", err)
		return nil, fmt.Errorf("%w: ListOperators - repository error: %v", ErrInternal, err)
	}
	return ops, nil
}

// DeactivateOperator блокирует учётную запись оператора. Назначения станций не снимаются.
func (s *Service) DeactivateOperator(ctx context.Context, actor domain.Actor, operatorID uuid.UUID) error {
	s.logger.Info("DeactivateOperator: operator id=%s by actor=%s", operatorID, actor.ID)

	if err := policy.Authorize(actor, policy.ActionManageOperator, policy.Resource{}).Err(); err != nil {
		s.logger.Warn("DeactivateOperator: %v", err)
		return err
	}

	if err := s.operatorRepo.SetActive(ctx, operatorID, false); err != nil {
		if errors.Is(err, operatorRepo.ErrOperatorNotFound) {
			return fmt.Errorf("%w: %s", ErrOperatorNotFound, operatorID)
		}
		s.logger.Error("DeactivateOperator: repository error for operator id=%s: %v", operatorID, err)
		return fmt.Errorf("%w: DeactivateOperator - repository error: %v", ErrInternal, err)
	}
	return nil
}

func (s *Service) getOperator(ctx context.Context, op string, id uuid.UUID) (*domain.Operator, error) {
	operator, err := s.operatorRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, operatorRepo.ErrOperatorNotFound) {
			s.logger.Warn("%s: operator id=%s not found", op, id)
			return nil, fmt.Errorf("%w: %s", ErrOperatorNotFound, id)
		}
		return nil, fmt.Errorf("%w: %s - get operator: %v", ErrInternal, op, err)
	}
	return operator, nil
}

// operatorUsername "op-<slug станции>-<6 символов id>"
func operatorUsername(stationName string, id uuid.UUID) string {
	var b strings.Builder
	for _, r := range strings.ToLower(stationName) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
				b.WriteByte('-')
			}
		}
		if b.Len() >= 20 {
			break
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "station"
	}
	return fmt.Sprintf("op-%s-%s", slug, id.String()[:6])
}
