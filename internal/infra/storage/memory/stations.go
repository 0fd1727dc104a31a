package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	"github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/station"
)

type StationRepository struct {
	s *Store
}

func (r *StationRepository) Create(ctx context.Context, st *domain.Station) error {
	defer r.s.lock(ctx)()
	r.s.stations[st.ID] = stripStation(*st)
	return nil
}

func (r *StationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Station, error) {
	defer r.s.lock(ctx)()
	st, ok := r.s.stations[id]
	if !ok {
		return nil, station.ErrStationNotFound
	}
	return &st, nil
}

// GetByIDForUpdate совпадает с GetByID: транзакция и так держит всё хранилище
func (r *StationRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Station, error) {
	return r.GetByID(ctx, id)
}

func (r *StationRepository) List(ctx context.Context, filter domain.StationFilter) ([]*domain.Station, error) {
	defer r.s.lock(ctx)()

	result := make([]*domain.Station, 0)
	for _, st := range r.s.stations {
		if filter.Type != nil && st.Type != *filter.Type {
			continue
		}
		if filter.ActiveOnly && !st.IsActive {
			continue
		}
		if filter.OperatorID != nil && (st.OperatorID == nil || *st.OperatorID != *filter.OperatorID) {
			continue
		}
		if filter.City != "" && !strings.EqualFold(st.Location.City, filter.City) {
			continue
		}
		st := st
		result = append(result, &st)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}

func (r *StationRepository) Update(ctx context.Context, st *domain.Station) error {
	defer r.s.lock(ctx)()
	existing, ok := r.s.stations[st.ID]
	if !ok {
		return station.ErrStationNotFound
	}
	updated := stripStation(*st)
	updated.CreatedAt = existing.CreatedAt
	r.s.stations[st.ID] = updated
	return nil
}

func (r *StationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.stations[id]; !ok {
		return station.ErrStationNotFound
	}
	delete(r.s.stations, id)
	for slotID, sl := range r.s.slots {
		if sl.StationID == id {
			delete(r.s.slots, slotID)
		}
	}
	return nil
}

func stripStation(st domain.Station) domain.Station {
	st.AvailableSlots = nil
	return st
}
