package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	"github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/operator"
)

type OperatorRepository struct {
	s *Store
}

func (r *OperatorRepository) Create(ctx context.Context, op *domain.Operator) error {
	defer r.s.lock(ctx)()
	for _, existing := range r.s.operators {
		if existing.Username == op.Username || existing.Email == op.Email {
			return operator.ErrDuplicate
		}
	}
	r.s.operators[op.ID] = *op
	return nil
}

func (r *OperatorRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Operator, error) {
	defer r.s.lock(ctx)()
	op, ok := r.s.operators[id]
	if !ok {
		return nil, operator.ErrOperatorNotFound
	}
	return &op, nil
}

func (r *OperatorRepository) List(ctx context.Context) ([]*domain.Operator, error) {
	defer r.s.lock(ctx)()
	result := make([]*domain.Operator, 0, len(r.s.operators))
	for _, op := range r.s.operators {
		op := op
		result = append(result, &op)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result, nil
}

func (r *OperatorRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	defer r.s.lock(ctx)()
	op, ok := r.s.operators[id]
	if !ok {
		return operator.ErrOperatorNotFound
	}
	op.IsActive = active
	r.s.operators[id] = op
	return nil
}
