package stations_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	"github.com/m04kA/SMC-ChargingBookingService/internal/infra/lock"
	"github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/pgerr"
	"github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/slots"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/stations"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/clock"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/logger"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/metrics"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/password"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/ptr"
)

var (
	backoffice = domain.Actor{ID: "admin-1", Role: domain.RoleBackoffice}
	owner      = domain.Actor{ID: "199012345678", Role: domain.RoleEVOwner}
	now        = time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
)

type fixture struct {
	svc   *stations.Service
	store *memory.Store
	clock *clock.Manual
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithAllocatorTx(t, func(tx *memory.TxManager) slots.TransactionManager { return tx })
}

// newFixtureWithAllocatorTx позволяет подменить транзакции аллокатора
func newFixtureWithAllocatorTx(t *testing.T, wrap func(*memory.TxManager) slots.TransactionManager) *fixture {
	t.Helper()
	store := memory.NewStore()
	tx := memory.NewTxManager(store)
	log := logger.NewNop()

	cfg := slots.DefaultConfig()
	cfg.HorizonDays = 2
	cfg.Retry.Delay = time.Millisecond
	allocator := slots.NewService(store.Slots(), wrap(tx), lock.NewLocalLock(), (*metrics.Metrics)(nil), cfg, log)

	clk := clock.NewManual(now)
	svc := stations.NewService(
		store.Stations(),
		store.Operators(),
		store.Bookings(),
		allocator,
		password.NewBcryptHasher(bcrypt.MinCost),
		tx,
		clk,
		2,
		log,
	)
	return &fixture{svc: svc, store: store, clock: clk}
}

func stationConfig() domain.StationConfig {
	return domain.StationConfig{
		Name:         "Colombo Fort",
		Type:         "dc",
		Location:     domain.Location{Address: "1 Main St", City: "Colombo", Latitude: 6.93, Longitude: 79.85},
		TotalSockets: 2,
		SlotsPerDay:  4,
		OpenTime:     "08:00",
		CloseTime:    "16:00",
	}
}

func countSlots(t *testing.T, f *fixture, stationID uuid.UUID) int {
	t.Helper()
	all, err := f.store.Slots().List(context.Background(), domain.SlotFilter{StationID: stationID})
	require.NoError(t, err)
	return len(all)
}

func TestCreate_MaterializesSchedule(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Create(context.Background(), backoffice, stationConfig(), false)
	require.NoError(t, err)
	assert.Nil(t, res.Credentials)

	st := res.Station
	assert.Equal(t, domain.StationTypeDC, st.Type)
	assert.Equal(t, "UTC", st.Timezone)
	assert.True(t, st.IsActive)
	// 2 дня * 4 окна * 2 сокета
	assert.Equal(t, 16, countSlots(t, f, st.ID))
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)

	cases := map[string]func(c *domain.StationConfig){
		"no sockets":        func(c *domain.StationConfig) { c.TotalSockets = 0 },
		"too many slots":    func(c *domain.StationConfig) { c.SlotsPerDay = 49 },
		"zero slots":        func(c *domain.StationConfig) { c.SlotsPerDay = 0 },
		"bad type":          func(c *domain.StationConfig) { c.Type = "XL" },
		"close before open": func(c *domain.StationConfig) { c.OpenTime, c.CloseTime = "18:00", "08:00" },
		"unknown timezone":  func(c *domain.StationConfig) { c.Timezone = "Mars/Olympus" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := stationConfig()
			mutate(&cfg)
			_, err := f.svc.Create(context.Background(), backoffice, cfg, false)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestCreate_OnlyBackoffice(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), owner, stationConfig(), false)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreate_WithOperator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, backoffice, stationConfig(), true)
	require.NoError(t, err)
	require.NotNil(t, res.Credentials)
	require.NotNil(t, res.Station.OperatorID)
	assert.Equal(t, res.Credentials.OperatorID, *res.Station.OperatorID)
	assert.Contains(t, res.Credentials.Username, "op-colombo-fort-")
	assert.Len(t, res.Credentials.Password, domain.DefaultOperatorPasswordLength)

	op, err := f.store.Operators().GetByID(ctx, res.Credentials.OperatorID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(res.Credentials.Password)))

	operator := domain.Actor{ID: op.ID.String(), Role: domain.RoleStationOperator}
	mine, err := f.svc.MyStations(ctx, operator)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, res.Station.ID, mine[0].ID)
}

func TestUpdate_RegeneratesSchedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, backoffice, stationConfig(), false)
	require.NoError(t, err)

	cfg := stationConfig()
	cfg.SlotsPerDay = 8
	updated, err := f.svc.Update(ctx, backoffice, res.Station.ID, cfg)
	require.NoError(t, err)
	assert.Equal(t, 8, updated.SlotsPerDay)
	assert.Equal(t, 32, countSlots(t, f, res.Station.ID))

	// повторное сохранение без изменений расписания не трогает слоты
	cfg.Name = "Colombo Fort North"
	_, err = f.svc.Update(ctx, backoffice, res.Station.ID, cfg)
	require.NoError(t, err)
	assert.Equal(t, 32, countSlots(t, f, res.Station.ID))
}

func TestUpdate_OperatorMayOnlyToggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, backoffice, stationConfig(), true)
	require.NoError(t, err)
	operator := domain.Actor{ID: res.Credentials.OperatorID.String(), Role: domain.RoleStationOperator}

	cfg := stationConfig()
	cfg.SlotsPerDay = 8
	cfg.IsActive = ptr.Ptr(false)
	_, err = f.svc.Update(ctx, operator, res.Station.ID, cfg)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	st, err := f.svc.Update(ctx, operator, res.Station.ID, domain.StationConfig{IsActive: ptr.Ptr(false)})
	require.NoError(t, err)
	assert.False(t, st.IsActive)

	stranger := domain.Actor{ID: uuid.NewString(), Role: domain.RoleStationOperator}
	_, err = f.svc.Reactivate(ctx, stranger, res.Station.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	st, err = f.svc.Reactivate(ctx, operator, res.Station.ID)
	require.NoError(t, err)
	assert.True(t, st.IsActive)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, backoffice, stationConfig(), false)
	require.NoError(t, err)
	id := res.Station.ID

	require.NoError(t, f.store.Bookings().Create(ctx, &domain.Booking{
		ID:                  uuid.New(),
		Reference:           "EV-20250602-AAAAAA",
		OwnerNIC:            owner.ID,
		StationID:           id,
		ReservationDateTime: now.Add(26 * time.Hour),
		DurationMinutes:     60,
		Status:              domain.StatusPending,
	}))

	err = f.svc.Delete(ctx, backoffice, id)
	assert.ErrorIs(t, err, domain.ErrHasActiveBookings)

	err = f.svc.Delete(ctx, owner, id)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	other, err := f.svc.Create(ctx, backoffice, stationConfig(), false)
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, backoffice, other.Station.ID))
	assert.Equal(t, 0, countSlots(t, f, other.Station.ID))

	_, err = f.svc.Get(ctx, backoffice, other.Station.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGet_ReturnsAvailableSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, backoffice, stationConfig(), false)
	require.NoError(t, err)

	st, err := f.svc.Get(ctx, owner, res.Station.ID)
	require.NoError(t, err)
	require.NotEmpty(t, st.AvailableSlots)
	for _, sl := range st.AvailableSlots {
		assert.True(t, sl.IsAvailable)
		assert.True(t, sl.StartTime.After(now))
	}
}

func TestList_OwnersSeeActiveOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, backoffice, stationConfig(), false)
	require.NoError(t, err)
	cfg := stationConfig()
	cfg.Name = "Galle Road"
	_, err = f.svc.Create(ctx, backoffice, cfg, false)
	require.NoError(t, err)

	_, err = f.svc.Deactivate(ctx, backoffice, a.Station.ID)
	require.NoError(t, err)

	all, err := f.svc.List(ctx, backoffice, domain.StationFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	visible, err := f.svc.List(ctx, owner, domain.StationFilter{})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "Galle Road", visible[0].Name)
}

func TestAssignAndDeactivateOperator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	withOp, err := f.svc.Create(ctx, backoffice, stationConfig(), true)
	require.NoError(t, err)
	plain, err := f.svc.Create(ctx, backoffice, stationConfig(), false)
	require.NoError(t, err)

	opID := withOp.Credentials.OperatorID
	st, err := f.svc.AssignOperator(ctx, backoffice, plain.Station.ID, opID)
	require.NoError(t, err)
	assert.Equal(t, opID, *st.OperatorID)

	_, err = f.svc.AssignOperator(ctx, backoffice, plain.Station.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ops, err := f.svc.ListOperators(ctx, backoffice)
	require.NoError(t, err)
	assert.Len(t, ops, 1)

	require.NoError(t, f.svc.DeactivateOperator(ctx, backoffice, opID))
	_, err = f.svc.AssignOperator(ctx, backoffice, plain.Station.ID, opID)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.ListOperators(ctx, owner)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRefreshSchedules_ExtendsHorizon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, backoffice, stationConfig(), false)
	require.NoError(t, err)
	before := countSlots(t, f, res.Station.ID)

	f.clock.Advance(24 * time.Hour)
	n, err := f.svc.RefreshSchedules(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
	assert.Equal(t, before+8, countSlots(t, f, res.Station.ID))

	n, err = f.svc.RefreshSchedules(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.Equal(t, before+8, countSlots(t, f, res.Station.ID))
}

// serializationFailures откатывает первые failures транзакций с ошибкой сериализации
type serializationFailures struct {
	inner    *memory.TxManager
	mu       sync.Mutex
	failures int
}

func (s *serializationFailures) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	fail := s.failures > 0
	if fail {
		s.failures--
	}
	s.mu.Unlock()

	if !fail {
		return s.inner.DoSerializable(ctx, fn)
	}
	return s.inner.DoSerializable(ctx, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return err
		}
		return &pq.Error{Code: pgerr.CodeSerializationFailure}
	})
}

func TestRefreshSchedules_RetriedAttemptCountedOnce(t *testing.T) {
	flaky := &serializationFailures{}
	f := newFixtureWithAllocatorTx(t, func(tx *memory.TxManager) slots.TransactionManager {
		flaky.inner = tx
		return flaky
	})
	ctx := context.Background()

	res, err := f.svc.Create(ctx, backoffice, stationConfig(), false)
	require.NoError(t, err)
	before := countSlots(t, f, res.Station.ID)

	f.clock.Advance(24 * time.Hour)
	flaky.mu.Lock()
	flaky.failures = 1
	flaky.mu.Unlock()

	n, err := f.svc.RefreshSchedules(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
	assert.Equal(t, before+8, countSlots(t, f, res.Station.ID))
}
