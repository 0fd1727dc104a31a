package verification_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	"github.com/m04kA/SMC-ChargingBookingService/internal/infra/events"
	"github.com/m04kA/SMC-ChargingBookingService/internal/infra/lock"
	"github.com/m04kA/SMC-ChargingBookingService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/bookings"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/slots"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/verification"
	"github.com/m04kA/SMC-ChargingBookingService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/clock"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/logger"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/metrics"
)

const (
	nic     = "199012345678"
	signKey = "test-signing-key"
	issuer  = "charging-booking-service"
)

var (
	now      = time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	start    = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	evOwner  = domain.Actor{ID: nic, Role: domain.RoleEVOwner}
	admin    = domain.Actor{ID: "admin-1", Role: domain.RoleBackoffice}
	stranger = domain.Actor{ID: "200011112222", Role: domain.RoleEVOwner}
)

type redemptions struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *redemptions) IncRedemption(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[result]++
}

func (r *redemptions) get(result string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[result]
}

type fixture struct {
	svc      *verification.Service
	bookings *bookings.Service
	store    *memory.Store
	clock    *clock.Manual
	metrics  *redemptions
	operator domain.Actor
	booking  *domain.Booking
}

// newFixture создаёт станцию с оператором и ожидающее бронирование на завтра 08:00-10:00
func newFixture(t *testing.T) *fixture {
	t.Helper()
	opID := uuid.New()
	station := &domain.Station{
		ID:           uuid.New(),
		Name:         "Kurunegala",
		Type:         domain.StationTypeDC,
		TotalSockets: 1,
		SlotsPerDay:  4,
		OpenTime:     "08:00",
		CloseTime:    "16:00",
		Timezone:     "UTC",
		OperatorID:   &opID,
		IsActive:     true,
	}
	return newFixtureAt(t, station, start, 120)
}

// newFixtureAt создаёт станцию station и ожидающее бронирование владельца nic с началом at
func newFixtureAt(t *testing.T, station *domain.Station, at time.Time, minutes int) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	log := logger.NewNop()
	clk := clock.NewManual(now)
	tx := memory.NewTxManager(store)
	noMetrics := (*metrics.Metrics)(nil)
	publisher := events.NewLogPublisher(log)
	rules := domain.DefaultBookingRules()

	allocator := slots.NewService(store.Slots(), tx, lock.NewLocalLock(), noMetrics, slots.DefaultConfig(), log)

	require.NoError(t, store.Stations().Create(ctx, station))
	_, err := allocator.EnsureSchedule(ctx, station, now)
	require.NoError(t, err)

	create := create_booking.NewUseCase(store.Bookings(), store.Stations(), allocator, nil,
		publisher, noMetrics, rules, clk, log)
	res, err := create.Execute(ctx, evOwner, &create_booking.Request{
		OwnerNIC:            nic,
		StationID:           station.ID,
		ReservationDateTime: at,
		DurationMinutes:     minutes,
	})
	require.NoError(t, err)

	bookingSvc := bookings.NewService(store.Bookings(), store.Stations(), allocator, store.Tokens(),
		publisher, noMetrics, tx, rules, clk, log)
	counts := &redemptions{counts: make(map[string]int)}

	return &fixture{
		svc: verification.NewService(store.Tokens(), store.Bookings(), store.Stations(), bookingSvc,
			verification.NewSigner(signKey, issuer), tx, counts, clk, log),
		bookings: bookingSvc,
		store:    store,
		clock:    clk,
		metrics:  counts,
		operator: domain.Actor{ID: station.OperatorID.String(), Role: domain.RoleStationOperator},
		booking:  res.Booking,
	}
}

func (f *fixture) approveAndIssue(t *testing.T) string {
	t.Helper()
	_, err := f.bookings.Approve(context.Background(), f.operator, f.booking.ID)
	require.NoError(t, err)
	issued, err := f.svc.Issue(context.Background(), evOwner, f.booking.ID)
	require.NoError(t, err)
	return issued.Token
}

func TestIssue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, evOwner, f.booking.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "pending booking")

	_, err = f.bookings.Approve(ctx, f.operator, f.booking.ID)
	require.NoError(t, err)

	_, err = f.svc.Issue(ctx, stranger, f.booking.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Issue(ctx, admin, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	issued, err := f.svc.Issue(ctx, evOwner, f.booking.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)
	assert.Equal(t, start.Add(2*time.Hour), issued.ExpiresAt)
	assert.Equal(t, f.booking.Reference, issued.Booking.Reference)
	assert.Equal(t, domain.StatusApproved, issued.Booking.Status)

	signer := verification.NewSigner(signKey, issuer)
	jti, claims, err := signer.Parse(issued.Token, now)
	require.NoError(t, err)
	assert.Equal(t, f.booking.ID.String(), claims.BookingID)
	assert.Equal(t, nic, claims.OwnerNIC)
	assert.Equal(t, 120, claims.DurationMinutes)

	record, err := f.store.Tokens().GetByID(ctx, jti)
	require.NoError(t, err)
	assert.Equal(t, f.booking.ID, record.BookingID)
}

func TestIssue_AfterReservationEnded(t *testing.T) {
	f := newFixture(t)
	_, err := f.bookings.Approve(context.Background(), f.operator, f.booking.ID)
	require.NoError(t, err)

	f.clock.Set(start.Add(3 * time.Hour))
	_, err = f.svc.Issue(context.Background(), evOwner, f.booking.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestIssue_NewTokenRevokesPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.approveAndIssue(t)

	second, err := f.svc.Issue(ctx, evOwner, f.booking.ID)
	require.NoError(t, err)

	_, err = f.svc.Validate(ctx, f.operator, first)
	assert.ErrorIs(t, err, domain.ErrBookingNoLongerApprovable)

	snapshot, err := f.svc.Validate(ctx, f.operator, second.Token)
	require.NoError(t, err)
	assert.Equal(t, f.booking.ID, snapshot.Booking.ID)
}

func TestValidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := f.approveAndIssue(t)

	snapshot, err := f.svc.Validate(ctx, f.operator, token)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, snapshot.Booking.Status)
	assert.Equal(t, start.Add(2*time.Hour), snapshot.ExpiresAt)

	_, err = f.svc.Validate(ctx, evOwner, token)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	otherOperator := domain.Actor{ID: uuid.NewString(), Role: domain.RoleStationOperator}
	_, err = f.svc.Validate(ctx, otherOperator, token)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// валидация не гасит токен
	_, err = f.svc.Validate(ctx, admin, token)
	assert.NoError(t, err)
}

func TestValidate_BadTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := f.approveAndIssue(t)

	tampered := token[:len(token)-2] + "xx"
	if tampered == token {
		tampered = token[:len(token)-2] + "yy"
	}

	foreign, err := verification.NewSigner("another-key", issuer).Sign(uuid.New(), f.booking, now)
	require.NoError(t, err)

	unknown, err := verification.NewSigner(signKey, issuer).Sign(uuid.New(), f.booking, now)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"empty":      "",
		"garbage":    "not-a-jwt",
		"tampered":   tampered,
		"foreign":    foreign,
		"not issued": unknown,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Validate(ctx, f.operator, raw)
			assert.ErrorIs(t, err, domain.ErrInvalidToken)
		})
	}

	f.clock.Set(start.Add(2 * time.Hour))
	_, err = f.svc.Validate(ctx, f.operator, token)
	assert.ErrorIs(t, err, verification.ErrTokenExpired)
}

func TestValidate_AfterCancelAndReschedule(t *testing.T) {
	ctx := context.Background()

	t.Run("cancelled", func(t *testing.T) {
		f := newFixture(t)
		token := f.approveAndIssue(t)
		_, err := f.bookings.Cancel(ctx, evOwner, f.booking.ID, "")
		require.NoError(t, err)

		_, err = f.svc.Validate(ctx, f.operator, token)
		assert.ErrorIs(t, err, domain.ErrBookingNoLongerApprovable)
	})

	t.Run("rescheduled", func(t *testing.T) {
		f := newFixture(t)
		token := f.approveAndIssue(t)
		later := start.Add(4 * time.Hour)
		_, err := f.bookings.Update(ctx, evOwner, f.booking.ID, domain.BookingChanges{ReservationDateTime: &later})
		require.NoError(t, err)

		_, err = f.svc.Validate(ctx, f.operator, token)
		assert.ErrorIs(t, err, domain.ErrBookingNoLongerApprovable)

		_, err = f.svc.Issue(ctx, evOwner, f.booking.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, "rescheduled booking needs approval again")
	})
}

func TestValidateQR(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := f.approveAndIssue(t)

	check, err := f.svc.ValidateQR(ctx, f.operator, token)
	require.NoError(t, err)
	assert.True(t, check.IsValid)
	require.NotNil(t, check.Snapshot)
	assert.Equal(t, f.booking.Reference, check.Snapshot.Booking.Reference)

	check, err = f.svc.ValidateQR(ctx, f.operator, "garbage")
	require.NoError(t, err)
	assert.False(t, check.IsValid)
	assert.Equal(t, "InvalidToken", check.ErrorCode)
	assert.NotEmpty(t, check.ErrorMessage)

	_, err = f.svc.ValidateQR(ctx, evOwner, token)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRedeem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := f.approveAndIssue(t)

	_, err := f.svc.Redeem(ctx, evOwner, token, nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	other := uuid.New()
	_, err = f.svc.Redeem(ctx, f.operator, token, &other)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	completed, err := f.svc.Redeem(ctx, f.operator, token, &f.booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
	assert.Equal(t, now, *completed.CompletedAt)

	held, err := f.store.Slots().ListByBooking(ctx, f.booking.ID)
	require.NoError(t, err)
	assert.Len(t, held, 1, "completed booking keeps its slots")

	_, err = f.svc.Redeem(ctx, f.operator, token, nil)
	assert.ErrorIs(t, err, domain.ErrTokenAlreadyRedeemed)

	_, err = f.svc.Validate(ctx, f.operator, token)
	assert.ErrorIs(t, err, domain.ErrTokenAlreadyRedeemed)

	assert.Equal(t, 1, f.metrics.get("redeemed"))
	assert.Equal(t, 1, f.metrics.get("replay"))
}

func TestRedeem_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := f.approveAndIssue(t)

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		redeemed int
		replayed int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Redeem(ctx, f.operator, token, nil)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				redeemed++
				return
			}
			if assert.ErrorIs(t, err, domain.ErrTokenAlreadyRedeemed) {
				replayed++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, redeemed)
	assert.Equal(t, workers-1, replayed)

	stored, err := f.store.Bookings().GetByID(ctx, f.booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, stored.Status)
}

func TestBookingLifecycle_StartInsideSlot(t *testing.T) {
	opID := uuid.New()
	station := &domain.Station{
		ID:           uuid.New(),
		Name:         "Galle Road",
		Type:         domain.StationTypeAC,
		TotalSockets: 4,
		SlotsPerDay:  10,
		OpenTime:     "00:00",
		CloseTime:    "24:00",
		Timezone:     "UTC",
		OperatorID:   &opID,
		IsActive:     true,
	}
	at := now.Add(48 * time.Hour) // 06:00 внутри окна 04:48-07:12
	f := newFixtureAt(t, station, at, 60)
	ctx := context.Background()

	assert.Equal(t, domain.StatusPending, f.booking.Status)
	assert.Equal(t, at, f.booking.ReservationDateTime)

	held, err := f.store.Slots().ListByBooking(ctx, f.booking.ID)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, at.Add(-72*time.Minute), held[0].StartTime)
	assert.Equal(t, held[0].ID, f.booking.SlotID)

	token := f.approveAndIssue(t)
	approved, err := f.store.Bookings().GetByID(ctx, f.booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)

	completed, err := f.svc.Redeem(ctx, f.operator, token, &f.booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, completed.Status)

	held, err = f.store.Slots().ListByBooking(ctx, f.booking.ID)
	require.NoError(t, err)
	assert.Len(t, held, 1, "completed booking keeps its slot")
	assert.False(t, held[0].IsAvailable)
}
