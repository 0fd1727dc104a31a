package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	"github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/booking"
)

type BookingRepository struct {
	s *Store
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	defer r.s.lock(ctx)()
	for _, existing := range r.s.bookings {
		if existing.Reference == b.Reference {
			return booking.ErrDuplicateReference
		}
	}
	r.s.bookings[b.ID] = *b
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	defer r.s.lock(ctx)()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	return &b, nil
}

func (r *BookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	defer r.s.lock(ctx)()

	result := make([]*domain.Booking, 0)
	for _, b := range r.s.bookings {
		if filter.StationID != nil && b.StationID != *filter.StationID {
			continue
		}
		if filter.StationIDs != nil && !slices.Contains(filter.StationIDs, b.StationID) {
			continue
		}
		if filter.OwnerNIC != nil && b.OwnerNIC != *filter.OwnerNIC {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		if filter.From != nil && b.ReservationDateTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !b.ReservationDateTime.Before(*filter.To) {
			continue
		}
		b := b
		result = append(result, &b)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].ReservationDateTime.Equal(result[j].ReservationDateTime) {
			return result[i].ReservationDateTime.Before(result[j].ReservationDateTime)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}

// Update сохраняет бронирование, если его статус в хранилище равен expected
func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking, expected domain.BookingStatus) error {
	defer r.s.lock(ctx)()
	existing, ok := r.s.bookings[b.ID]
	if !ok || existing.Status != expected {
		return booking.ErrStatusMismatch
	}
	updated := *b
	updated.Reference = existing.Reference
	updated.OwnerNIC = existing.OwnerNIC
	updated.StationID = existing.StationID
	updated.CreatedBy = existing.CreatedBy
	updated.CreatedAt = existing.CreatedAt
	r.s.bookings[b.ID] = updated
	return nil
}

func (r *BookingRepository) CountActiveByStation(ctx context.Context, stationID uuid.UUID) (int, error) {
	defer r.s.lock(ctx)()
	count := 0
	for _, b := range r.s.bookings {
		if b.StationID == stationID && b.IsActive() {
			count++
		}
	}
	return count, nil
}
