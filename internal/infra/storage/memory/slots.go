package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	"github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/slot"
)

type SlotRepository struct {
	s *Store
}

// InsertIfAbsent повторяет ON CONFLICT (station_id, socket, start_time) DO NOTHING
func (r *SlotRepository) InsertIfAbsent(ctx context.Context, slots []*domain.Slot) (int64, error) {
	defer r.s.lock(ctx)()

	type windowKey struct {
		station uuid.UUID
		socket  int
		start   int64
	}
	existing := make(map[windowKey]struct{}, len(r.s.slots))
	for _, sl := range r.s.slots {
		existing[windowKey{sl.StationID, sl.Socket, sl.StartTime.UnixNano()}] = struct{}{}
	}

	var inserted int64
	for _, sl := range slots {
		key := windowKey{sl.StationID, sl.Socket, sl.StartTime.UnixNano()}
		if _, ok := existing[key]; ok {
			continue
		}
		if _, ok := r.s.slots[sl.ID]; ok {
			continue
		}
		existing[key] = struct{}{}
		r.s.slots[sl.ID] = *sl
		inserted++
	}
	return inserted, nil
}

func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Slot, error) {
	defer r.s.lock(ctx)()
	sl, ok := r.s.slots[id]
	if !ok {
		return nil, slot.ErrSlotNotFound
	}
	return &sl, nil
}

func (r *SlotRepository) List(ctx context.Context, filter domain.SlotFilter) ([]*domain.Slot, error) {
	defer r.s.lock(ctx)()
	return r.collect(func(sl *domain.Slot) bool {
		if sl.StationID != filter.StationID {
			return false
		}
		if filter.From != nil && sl.StartTime.Before(*filter.From) {
			return false
		}
		if filter.To != nil && !sl.StartTime.Before(*filter.To) {
			return false
		}
		return !filter.AvailableOnly || sl.IsAvailable
	}), nil
}

func (r *SlotRepository) ListSocketRange(ctx context.Context, stationID uuid.UUID, socket int, from, to time.Time) ([]*domain.Slot, error) {
	defer r.s.lock(ctx)()
	return r.collect(func(sl *domain.Slot) bool {
		return sl.StationID == stationID && sl.Socket == socket &&
			!sl.StartTime.Before(from) && sl.StartTime.Before(to)
	}), nil
}

func (r *SlotRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*domain.Slot, error) {
	defer r.s.lock(ctx)()
	return r.collect(func(sl *domain.Slot) bool {
		return sl.BookingID != nil && *sl.BookingID == bookingID
	}), nil
}

func (r *SlotRepository) ListRange(ctx context.Context, stationID uuid.UUID, from, to time.Time) ([]*domain.Slot, error) {
	defer r.s.lock(ctx)()
	return r.collect(func(sl *domain.Slot) bool {
		return sl.StationID == stationID && sl.Overlaps(from, to)
	}), nil
}

func (r *SlotRepository) ListHeldOverlapping(ctx context.Context, stationID uuid.UUID, from, to time.Time) ([]*domain.Slot, error) {
	defer r.s.lock(ctx)()
	return r.collect(func(sl *domain.Slot) bool {
		return sl.StationID == stationID && !sl.IsAvailable && sl.Overlaps(from, to)
	}), nil
}

// Reserve занимает только свободные слоты из ids и возвращает их число
func (r *SlotRepository) Reserve(ctx context.Context, ids []uuid.UUID, bookingID uuid.UUID) (int64, error) {
	defer r.s.lock(ctx)()
	var affected int64
	for _, id := range ids {
		sl, ok := r.s.slots[id]
		if !ok || !sl.IsAvailable {
			continue
		}
		holder := bookingID
		sl.IsAvailable = false
		sl.BookingID = &holder
		r.s.slots[id] = sl
		affected++
	}
	return affected, nil
}

func (r *SlotRepository) ReleaseByBooking(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	defer r.s.lock(ctx)()
	var affected int64
	for id, sl := range r.s.slots {
		if sl.BookingID == nil || *sl.BookingID != bookingID {
			continue
		}
		sl.IsAvailable = true
		sl.BookingID = nil
		r.s.slots[id] = sl
		affected++
	}
	return affected, nil
}

func (r *SlotRepository) DeleteAvailable(ctx context.Context, ids []uuid.UUID) (int64, error) {
	defer r.s.lock(ctx)()
	var affected int64
	for _, id := range ids {
		if sl, ok := r.s.slots[id]; ok && sl.IsAvailable {
			delete(r.s.slots, id)
			affected++
		}
	}
	return affected, nil
}

func (r *SlotRepository) DeleteAvailableFrom(ctx context.Context, stationID uuid.UUID, from time.Time) (int64, error) {
	defer r.s.lock(ctx)()
	var affected int64
	for id, sl := range r.s.slots {
		if sl.StationID == stationID && sl.IsAvailable && !sl.StartTime.Before(from) {
			delete(r.s.slots, id)
			affected++
		}
	}
	return affected, nil
}

func (r *SlotRepository) DeleteByStation(ctx context.Context, stationID uuid.UUID) error {
	defer r.s.lock(ctx)()
	for id, sl := range r.s.slots {
		if sl.StationID == stationID {
			delete(r.s.slots, id)
		}
	}
	return nil
}

// collect вызывается под мьютексом, результат в порядке (start_time, socket)
func (r *SlotRepository) collect(match func(*domain.Slot) bool) []*domain.Slot {
	result := make([]*domain.Slot, 0)
	for _, sl := range r.s.slots {
		sl := sl
		if match(&sl) {
			result = append(result, &sl)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].StartTime.Before(result[j].StartTime)
		}
		return result[i].Socket < result[j].Socket
	})
	return result
}
