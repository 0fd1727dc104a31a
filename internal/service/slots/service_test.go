package slots_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	"github.com/m04kA/SMC-ChargingBookingService/internal/infra/lock"
	"github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/slots"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/logger"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/metrics"
)

var day = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func newStation() *domain.Station {
	return &domain.Station{
		ID:           uuid.New(),
		Name:         "Kandy Central",
		Type:         domain.StationTypeAC,
		TotalSockets: 2,
		SlotsPerDay:  4,
		OpenTime:     "08:00",
		CloseTime:    "16:00",
		Timezone:     "UTC",
		IsActive:     true,
	}
}

func newService(t *testing.T) (*slots.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	cfg := slots.DefaultConfig()
	cfg.HorizonDays = 2
	svc := slots.NewService(store.Slots(), memory.NewTxManager(store), lock.NewLocalLock(), (*metrics.Metrics)(nil), cfg, logger.NewNop())
	return svc, store
}

func TestGenerateSlots(t *testing.T) {
	st := newStation()

	all := slices.Collect(slots.GenerateSlots(st, day, 2))
	require.Len(t, all, 2*4*2)
	assert.Equal(t, day.Add(8*time.Hour), all[0].StartTime)
	assert.Equal(t, day.Add(10*time.Hour), all[0].EndTime)
	assert.Equal(t, 1, all[0].Socket)
	assert.Equal(t, 2, all[1].Socket)

	again := slices.Collect(slots.GenerateSlots(st, day, 2))
	assert.Equal(t, all, again, "generation is deterministic")

	n := 0
	for range slots.GenerateSlots(st, day, 2) {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestGenerateSlots_SkipsPastWindows(t *testing.T) {
	st := newStation()
	from := day.Add(9 * time.Hour)

	got := slices.Collect(slots.GenerateSlots(st, from, 2))
	assert.Len(t, got, 3*2+4*2)
	assert.Equal(t, day.Add(10*time.Hour), got[0].StartTime)
}

func TestGenerateSlots_StationTimezone(t *testing.T) {
	st := newStation()
	st.Timezone = "Asia/Colombo" // UTC+05:30

	got := slices.Collect(slots.GenerateSlots(st, day, 1))
	require.NotEmpty(t, got)
	assert.Equal(t, time.Date(2025, 6, 2, 2, 30, 0, 0, time.UTC), got[0].StartTime)
}

func TestEnsureSchedule_Idempotent(t *testing.T) {
	svc, _ := newService(t)
	st := newStation()
	ctx := context.Background()

	n, err := svc.EnsureSchedule(ctx, st, day)
	require.NoError(t, err)
	assert.Equal(t, int64(16), n)

	n, err = svc.EnsureSchedule(ctx, st, day)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestEnsureDay_BeyondHorizon(t *testing.T) {
	svc, store := newService(t)
	st := newStation()
	ctx := context.Background()

	_, err := svc.EnsureSchedule(ctx, st, day)
	require.NoError(t, err)

	later := day.AddDate(0, 0, 5)
	n, err := svc.EnsureDay(ctx, st, day, later.Add(13*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	n, err = svc.EnsureDay(ctx, st, day, later)
	require.NoError(t, err)
	assert.Zero(t, n)

	// сегодня после 11:00 достраиваются только окна, которые ещё не начались
	n, err = svc.EnsureDay(ctx, st, day.Add(11*time.Hour), day)
	require.NoError(t, err)
	assert.Zero(t, n)

	to := later.AddDate(0, 0, 1)
	got, err := store.Slots().List(ctx, domain.SlotFilter{StationID: st.ID, From: &later, To: &to})
	require.NoError(t, err)
	require.Len(t, got, 8)
	assert.Equal(t, later.Add(8*time.Hour), got[0].StartTime)
}

func reserve(ctx context.Context, svc *slots.Service, st *domain.Station, slotID uuid.UUID, minutes int) ([]*domain.Slot, error) {
	var reserved []*domain.Slot
	err := svc.RunExclusive(ctx, st.ID, func(ctx context.Context) error {
		var err error
		reserved, err = svc.Reserve(ctx, st, slotID, time.Time{}, minutes, uuid.New())
		return err
	})
	return reserved, err
}

func TestReserve_SpansContiguousSlots(t *testing.T) {
	svc, _ := newService(t)
	st := newStation()
	ctx := context.Background()
	_, err := svc.EnsureSchedule(ctx, st, day)
	require.NoError(t, err)

	first := domain.SlotID(st.ID, 1, day.Add(8*time.Hour))
	reserved, err := reserve(ctx, svc, st, first, 180)
	require.NoError(t, err)
	require.Len(t, reserved, 2)
	assert.Equal(t, reserved[0].EndTime, reserved[1].StartTime)
	assert.Equal(t, 1, reserved[1].Socket)

	// второй сокет всё ещё свободен
	_, err = reserve(ctx, svc, st, domain.SlotID(st.ID, 2, day.Add(8*time.Hour)), 60)
	require.NoError(t, err)

	// окно на первом сокете уже занято
	_, err = reserve(ctx, svc, st, domain.SlotID(st.ID, 1, day.Add(10*time.Hour)), 60)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
}

func TestReserve_MustFitOperatingHours(t *testing.T) {
	svc, _ := newService(t)
	st := newStation()
	ctx := context.Background()
	_, err := svc.EnsureSchedule(ctx, st, day)
	require.NoError(t, err)

	last := domain.SlotID(st.ID, 1, day.Add(14*time.Hour))
	_, err = reserve(ctx, svc, st, last, 180)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = reserve(ctx, svc, st, uuid.New(), 60)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReserve_StartInsideSlot(t *testing.T) {
	svc, store := newService(t)
	st := newStation()
	ctx := context.Background()
	_, err := svc.EnsureSchedule(ctx, st, day)
	require.NoError(t, err)

	first := domain.SlotID(st.ID, 1, day.Add(8*time.Hour))
	tests := []struct {
		name    string
		start   time.Time
		minutes int
		wantLen int
		wantErr error
	}{
		{name: "inside first slot", start: day.Add(9 * time.Hour), minutes: 60, wantLen: 1},
		{name: "crosses into next slot", start: day.Add(9 * time.Hour), minutes: 90, wantLen: 2},
		{name: "before slot", start: day.Add(7 * time.Hour), minutes: 60, wantErr: domain.ErrValidation},
		{name: "at slot end", start: day.Add(10 * time.Hour), minutes: 60, wantErr: domain.ErrValidation},
		{name: "past closing", start: day.Add(9 * time.Hour), minutes: 480, wantErr: domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookingID := uuid.New()
			err := svc.RunExclusive(ctx, st.ID, func(ctx context.Context) error {
				reserved, err := svc.Reserve(ctx, st, first, tt.start, tt.minutes, bookingID)
				if err == nil {
					assert.Len(t, reserved, tt.wantLen)
				}
				return err
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			_, err = svc.Release(ctx, bookingID)
			require.NoError(t, err)
		})
	}

	held, err := store.Slots().ListHeldOverlapping(ctx, st.ID, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, held)
}

func TestRunExclusive_ConcurrentReserveSingleWinner(t *testing.T) {
	svc, _ := newService(t)
	st := newStation()
	ctx := context.Background()
	_, err := svc.EnsureSchedule(ctx, st, day)
	require.NoError(t, err)

	target := domain.SlotID(st.ID, 1, day.Add(8*time.Hour))

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		success  int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reserve(ctx, svc, st, target, 60)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
			} else if assert.ErrorIs(t, err, domain.ErrCapacityExceeded) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, workers-1, rejected)
}

func TestRelease_FreesSlots(t *testing.T) {
	svc, store := newService(t)
	st := newStation()
	ctx := context.Background()
	_, err := svc.EnsureSchedule(ctx, st, day)
	require.NoError(t, err)

	bookingID := uuid.New()
	err = svc.RunExclusive(ctx, st.ID, func(ctx context.Context) error {
		_, err := svc.Reserve(ctx, st, domain.SlotID(st.ID, 2, day.Add(8*time.Hour)), time.Time{}, 240, bookingID)
		return err
	})
	require.NoError(t, err)

	n, err := svc.Release(ctx, bookingID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	held, err := store.Slots().ListByBooking(ctx, bookingID)
	require.NoError(t, err)
	assert.Empty(t, held)
}

func TestRegenerate_KeepsHeldSlots(t *testing.T) {
	svc, store := newService(t)
	st := newStation()
	ctx := context.Background()
	_, err := svc.EnsureSchedule(ctx, st, day)
	require.NoError(t, err)

	bookingID := uuid.New()
	heldStart := day.Add(10 * time.Hour)
	err = svc.RunExclusive(ctx, st.ID, func(ctx context.Context) error {
		_, err := svc.Reserve(ctx, st, domain.SlotID(st.ID, 1, heldStart), time.Time{}, 120, bookingID)
		return err
	})
	require.NoError(t, err)

	// 1-часовые слоты вместо 2-часовых
	st.SlotsPerDay = 8
	_, err = svc.Regenerate(ctx, st, day)
	require.NoError(t, err)

	held, err := store.Slots().ListByBooking(ctx, bookingID)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, heldStart, held[0].StartTime)
	assert.Equal(t, heldStart.Add(2*time.Hour), held[0].EndTime)

	from, to := day, day.Add(24*time.Hour)
	all, err := store.Slots().List(ctx, domain.SlotFilter{StationID: st.ID, From: &from, To: &to})
	require.NoError(t, err)

	var socket1, socket2 int
	for _, sl := range all {
		if sl.Socket == 1 {
			socket1++
			if sl.BookingID == nil {
				assert.False(t, sl.Overlaps(heldStart, heldStart.Add(2*time.Hour)), "new window overlaps held slot")
			}
		} else {
			socket2++
		}
	}
	assert.Equal(t, 8, socket2)
	assert.Equal(t, 6+1, socket1, "six new hourly windows plus the held two-hour slot")
}

func TestFindSlotAt(t *testing.T) {
	svc, _ := newService(t)
	st := newStation()
	ctx := context.Background()
	_, err := svc.EnsureSchedule(ctx, st, day)
	require.NoError(t, err)

	start := day.Add(8 * time.Hour)
	_, err = reserve(ctx, svc, st, domain.SlotID(st.ID, 1, start), 60)
	require.NoError(t, err)

	found, err := svc.FindSlotAt(ctx, st, start, 60)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Socket)

	_, err = reserve(ctx, svc, st, found.ID, 60)
	require.NoError(t, err)

	_, err = svc.FindSlotAt(ctx, st, start, 60)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)

	// окно 08:00-10:00 занято на обоих сокетах
	_, err = svc.FindSlotAt(ctx, st, start.Add(30*time.Minute), 60)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)

	found, err = svc.FindSlotAt(ctx, st, start.Add(150*time.Minute), 60)
	require.NoError(t, err)
	assert.Equal(t, start.Add(2*time.Hour), found.StartTime)
	assert.Equal(t, 1, found.Socket)

	_, err = svc.FindSlotAt(ctx, st, day.Add(17*time.Hour), 60)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRegrid_ReleasedOldSlotDoesNotDoubleBook(t *testing.T) {
	svc, store := newService(t)
	st := newStation()
	st.TotalSockets = 1
	ctx := context.Background()
	_, err := svc.EnsureSchedule(ctx, st, day)
	require.NoError(t, err)

	oldSlot := domain.SlotID(st.ID, 1, day.Add(10*time.Hour))
	bookingA := uuid.New()
	err = svc.RunExclusive(ctx, st.ID, func(ctx context.Context) error {
		_, err := svc.Reserve(ctx, st, oldSlot, time.Time{}, 120, bookingA)
		return err
	})
	require.NoError(t, err)

	st.SlotsPerDay = 8
	_, err = svc.Regenerate(ctx, st, day)
	require.NoError(t, err)
	_, err = svc.Release(ctx, bookingA)
	require.NoError(t, err)
	_, err = svc.EnsureSchedule(ctx, st, day)
	require.NoError(t, err)

	// свободный слот старой сетки заменён окном текущей сетки с тем же началом
	replaced, err := store.Slots().GetByID(ctx, oldSlot)
	require.NoError(t, err)
	assert.Equal(t, day.Add(11*time.Hour), replaced.EndTime)

	_, err = reserve(ctx, svc, st, oldSlot, 60)
	require.NoError(t, err)
	_, err = reserve(ctx, svc, st, domain.SlotID(st.ID, 1, day.Add(11*time.Hour)), 60)
	require.NoError(t, err)
	_, err = reserve(ctx, svc, st, domain.SlotID(st.ID, 1, day.Add(10*time.Hour)), 60)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)

	assertHeldConsistent(t, store, st)
}

func TestReserve_RejectsOverlapOnSameSocket(t *testing.T) {
	svc, store := newService(t)
	st := newStation()
	st.TotalSockets = 1
	ctx := context.Background()
	_, err := svc.EnsureSchedule(ctx, st, day)
	require.NoError(t, err)

	_, err = reserve(ctx, svc, st, domain.SlotID(st.ID, 1, day.Add(10*time.Hour)), 120)
	require.NoError(t, err)

	// окно другой сетки поверх занятого слота
	overlapping := &domain.Slot{
		ID:          domain.SlotID(st.ID, 1, day.Add(11*time.Hour)),
		StationID:   st.ID,
		Socket:      1,
		StartTime:   day.Add(11 * time.Hour),
		EndTime:     day.Add(12 * time.Hour),
		IsAvailable: true,
	}
	_, err = store.Slots().InsertIfAbsent(ctx, []*domain.Slot{overlapping})
	require.NoError(t, err)

	_, err = reserve(ctx, svc, st, overlapping.ID, 60)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)

	_, err = svc.FindSlotAt(ctx, st, overlapping.StartTime.Add(30*time.Minute), 30)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)

	assertHeldConsistent(t, store, st)
}

func TestHeldSlots_StayWithinSocketsAcrossReconfiguration(t *testing.T) {
	svc, store := newService(t)
	st := newStation()
	ctx := context.Background()
	_, err := svc.EnsureSchedule(ctx, st, day)
	require.NoError(t, err)

	rnd := rand.New(rand.NewPCG(7, 11))
	grids := []int{2, 4, 8, 16}
	var active []uuid.UUID

	for step := 0; step < 400; step++ {
		switch op := rnd.IntN(10); {
		case op < 6:
			from, to := day, day.Add(24*time.Hour)
			all, err := store.Slots().List(ctx, domain.SlotFilter{StationID: st.ID, From: &from, To: &to})
			require.NoError(t, err)
			if len(all) == 0 {
				continue
			}
			slot := all[rnd.IntN(len(all))]
			offset := time.Duration(rnd.IntN(4)) * 30 * time.Minute
			minutes := 30 * (1 + rnd.IntN(6))
			bookingID := uuid.New()
			err = svc.RunExclusive(ctx, st.ID, func(ctx context.Context) error {
				_, err := svc.Reserve(ctx, st, slot.ID, slot.StartTime.Add(offset), minutes, bookingID)
				return err
			})
			if err == nil {
				active = append(active, bookingID)
			} else if !errors.Is(err, domain.ErrCapacityExceeded) {
				require.ErrorIs(t, err, domain.ErrValidation, "step %d", step)
			}
		case op < 8:
			if len(active) == 0 {
				continue
			}
			i := rnd.IntN(len(active))
			_, err := svc.Release(ctx, active[i])
			require.NoError(t, err)
			active = slices.Delete(active, i, i+1)
		case op < 9:
			st.SlotsPerDay = grids[rnd.IntN(len(grids))]
			_, err := svc.Regenerate(ctx, st, day)
			require.NoError(t, err)
		default:
			_, err := svc.EnsureSchedule(ctx, st, day)
			require.NoError(t, err)
		}

		assertHeldConsistent(t, store, st)
	}
}

// assertHeldConsistent проверяет, что занятые слоты одного сокета не пересекаются
// и в любой момент занято не больше TotalSockets слотов
func assertHeldConsistent(t *testing.T, store *memory.Store, st *domain.Station) {
	t.Helper()
	held, err := store.Slots().ListHeldOverlapping(context.Background(), st.ID, day, day.Add(48*time.Hour))
	require.NoError(t, err)

	for i, a := range held {
		concurrent := 1
		for j, b := range held {
			if i == j || !b.Covers(a.StartTime) {
				continue
			}
			concurrent++
			require.NotEqual(t, a.Socket, b.Socket, "socket %d held twice at %s", a.Socket, a.StartTime)
		}
		require.LessOrEqual(t, concurrent, st.TotalSockets, "held slots at %s", a.StartTime)
	}
}
