package create_booking_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	"github.com/m04kA/SMC-ChargingBookingService/internal/infra/lock"
	"github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ChargingBookingService/internal/integrations/ownerservice"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/slots"
	"github.com/m04kA/SMC-ChargingBookingService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/clock"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/logger"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/metrics"
)

const nic = "199012345678"

var (
	now        = time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	tomorrow8  = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	evOwner    = domain.Actor{ID: nic, Role: domain.RoleEVOwner}
	backoffice = domain.Actor{ID: "admin-1", Role: domain.RoleBackoffice}
)

type ownerStub struct {
	err error
}

func (o ownerStub) EnsureActive(context.Context, string) error { return o.err }

type recorder struct {
	mu     sync.Mutex
	events []domain.BookingStatusChanged
}

func (r *recorder) Publish(_ context.Context, e domain.BookingStatusChanged) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

type fixture struct {
	uc        *create_booking.UseCase
	store     *memory.Store
	allocator *slots.Service
	events    *recorder
	station   *domain.Station
}

func newFixture(t *testing.T, sockets int, owners create_booking.OwnerDirectory) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	log := logger.NewNop()

	allocator := slots.NewService(store.Slots(), memory.NewTxManager(store), lock.NewLocalLock(),
		(*metrics.Metrics)(nil), slots.DefaultConfig(), log)

	station := &domain.Station{
		ID:           uuid.New(),
		Name:         "Kandy Central",
		Type:         domain.StationTypeAC,
		TotalSockets: sockets,
		SlotsPerDay:  4,
		OpenTime:     "08:00",
		CloseTime:    "16:00",
		Timezone:     "UTC",
		IsActive:     true,
	}
	require.NoError(t, store.Stations().Create(ctx, station))
	_, err := allocator.EnsureSchedule(ctx, station, now)
	require.NoError(t, err)

	events := &recorder{}
	uc := create_booking.NewUseCase(
		store.Bookings(),
		store.Stations(),
		allocator,
		owners,
		events,
		(*metrics.Metrics)(nil),
		domain.DefaultBookingRules(),
		clock.NewManual(now),
		log,
	)
	return &fixture{uc: uc, store: store, allocator: allocator, events: events, station: station}
}

func (f *fixture) request(start time.Time, minutes int) *create_booking.Request {
	return &create_booking.Request{
		OwnerNIC:            nic,
		StationID:           f.station.ID,
		SlotID:              domain.SlotID(f.station.ID, 1, start),
		ReservationDateTime: start,
		DurationMinutes:     minutes,
	}
}

func TestExecute_CreatesPendingBooking(t *testing.T) {
	f := newFixture(t, 2, nil)
	ctx := context.Background()

	res, err := f.uc.Execute(ctx, evOwner, f.request(tomorrow8, 180))
	require.NoError(t, err)

	b := res.Booking
	assert.Equal(t, domain.StatusPending, b.Status)
	assert.Equal(t, tomorrow8, b.ReservationDateTime)
	assert.Equal(t, 180, b.DurationMinutes)
	assert.True(t, strings.HasPrefix(b.Reference, "EV-20250602-"), b.Reference)
	assert.Equal(t, nic, b.CreatedBy)
	require.Len(t, res.Slots, 2)

	held, err := f.store.Slots().ListByBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, held, 2)

	stored, err := f.store.Bookings().GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Reference, stored.Reference)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, domain.StatusPending, f.events.events[0].To)
}

func TestExecute_BySlotOnly(t *testing.T) {
	f := newFixture(t, 1, nil)

	req := f.request(tomorrow8, 60)
	req.ReservationDateTime = time.Time{}
	res, err := f.uc.Execute(context.Background(), evOwner, req)
	require.NoError(t, err)
	assert.Equal(t, tomorrow8, res.Booking.ReservationDateTime)
}

func TestExecute_ByTimePicksFreeSocket(t *testing.T) {
	f := newFixture(t, 2, nil)
	ctx := context.Background()

	byTime := func() *create_booking.Request {
		req := f.request(tomorrow8, 60)
		req.SlotID = uuid.Nil
		return req
	}

	first, err := f.uc.Execute(ctx, evOwner, byTime())
	require.NoError(t, err)
	second, err := f.uc.Execute(ctx, backoffice, byTime())
	require.NoError(t, err)
	assert.NotEqual(t, first.Slots[0].Socket, second.Slots[0].Socket)

	_, err = f.uc.Execute(ctx, evOwner, byTime())
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
}

func TestExecute_ByTimeExtendsSchedule(t *testing.T) {
	f := newFixture(t, 1, nil)
	ctx := context.Background()

	// день, которого ещё нет в расписании
	day := now.AddDate(0, 0, 6)
	last := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	next := last.AddDate(0, 0, 1)
	existing, err := f.store.Slots().List(ctx, domain.SlotFilter{StationID: f.station.ID, From: &last, To: &next})
	require.NoError(t, err)
	ids := make([]uuid.UUID, 0, len(existing))
	for _, sl := range existing {
		ids = append(ids, sl.ID)
	}
	_, err = f.store.Slots().DeleteAvailable(ctx, ids)
	require.NoError(t, err)

	start := last.Add(10*time.Hour + 30*time.Minute)
	req := f.request(start, 60)
	req.SlotID = uuid.Nil
	res, err := f.uc.Execute(ctx, evOwner, req)
	require.NoError(t, err)
	assert.Equal(t, start, res.Booking.ReservationDateTime)
	require.Len(t, res.Slots, 1)
	assert.Equal(t, last.Add(10*time.Hour), res.Slots[0].StartTime)
}

func TestExecute_TemporalWindow(t *testing.T) {
	f := newFixture(t, 1, nil)
	ctx := context.Background()

	cases := map[string]*create_booking.Request{
		"past":            f.request(now.Add(-2*time.Hour), 60),
		"beyond 7 days":   f.request(now.Add(7*24*time.Hour+2*time.Hour), 60),
		"off-grid length": f.request(tomorrow8, 45),
		"too long":        f.request(tomorrow8, 270),
		"missing station": {OwnerNIC: nic, ReservationDateTime: tomorrow8, DurationMinutes: 60},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.uc.Execute(ctx, evOwner, req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	// последнее окно в пределах 7 дней
	_, err := f.uc.Execute(ctx, evOwner, f.request(time.Date(2025, 6, 7, 14, 0, 0, 0, time.UTC), 60))
	assert.NoError(t, err)
}

func TestExecute_Authorization(t *testing.T) {
	f := newFixture(t, 1, nil)
	ctx := context.Background()

	req := f.request(tomorrow8, 60)
	req.OwnerNIC = "200099999999"
	_, err := f.uc.Execute(ctx, evOwner, req)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	operator := domain.Actor{ID: uuid.NewString(), Role: domain.RoleStationOperator}
	_, err = f.uc.Execute(ctx, operator, f.request(tomorrow8, 60))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// back-office бронирует от имени владельца
	res, err := f.uc.Execute(ctx, backoffice, req)
	require.NoError(t, err)
	assert.Equal(t, "200099999999", res.Booking.OwnerNIC)
	assert.Equal(t, backoffice.ID, res.Booking.CreatedBy)
}

func TestExecute_InactiveStation(t *testing.T) {
	f := newFixture(t, 1, nil)
	ctx := context.Background()

	f.station.IsActive = false
	require.NoError(t, f.store.Stations().Update(ctx, f.station))

	_, err := f.uc.Execute(ctx, evOwner, f.request(tomorrow8, 60))
	assert.ErrorIs(t, err, domain.ErrStationInactive)
}

func TestExecute_OwnerDirectory(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t, 1, ownerStub{err: ownerservice.ErrOwnerInactive})
	_, err := f.uc.Execute(ctx, evOwner, f.request(tomorrow8, 60))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	f = newFixture(t, 1, ownerStub{err: ownerservice.ErrOwnerNotFound})
	_, err = f.uc.Execute(ctx, evOwner, f.request(tomorrow8, 60))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	f = newFixture(t, 1, ownerStub{err: ownerservice.ErrServiceDegraded})
	_, err = f.uc.Execute(ctx, evOwner, f.request(tomorrow8, 60))
	assert.NoError(t, err, "unreachable directory must not block booking")
}

func TestExecute_ConcurrentSameSlotSingleWinner(t *testing.T) {
	f := newFixture(t, 1, nil)
	ctx := context.Background()

	const workers = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  []*domain.Booking
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.uc.Execute(ctx, evOwner, f.request(tomorrow8, 120))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created = append(created, res.Booking)
				return
			}
			if assert.ErrorIs(t, err, domain.ErrCapacityExceeded) {
				rejected++
			}
		}()
	}
	wg.Wait()

	require.Len(t, created, 1)
	assert.Equal(t, workers-1, rejected)

	all, err := f.store.Bookings().List(ctx, domain.BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
