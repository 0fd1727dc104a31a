package booking

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

func newMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db), mock
}

func sampleBooking() *domain.Booking {
	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	return &domain.Booking{
		ID:                  uuid.New(),
		Reference:           "EV-20250601-ABC234",
		OwnerNIC:            "199012345678",
		StationID:           uuid.New(),
		SlotID:              uuid.New(),
		ReservationDateTime: start,
		DurationMinutes:     60,
		Status:              domain.StatusPending,
		CreatedBy:           "199012345678",
		CreatedAt:           start.Add(-24 * time.Hour),
		UpdatedAt:           start.Add(-24 * time.Hour),
	}
}

func TestRepository_Update_StatusGuard(t *testing.T) {
	repo, mock := newMock(t)
	b := sampleBooking()
	b.Status = domain.StatusApproved

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), b, domain.StatusPending)
	assert.ErrorIs(t, err, ErrStatusMismatch)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create_DuplicateReference(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec("INSERT INTO bookings").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), sampleBooking())
	assert.ErrorIs(t, err, ErrDuplicateReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID(t *testing.T) {
	repo, mock := newMock(t)
	b := sampleBooking()
	approved := b.CreatedAt.Add(time.Hour)

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id = \\$1").
		WithArgs(b.ID.String()).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			b.ID.String(), b.Reference, b.OwnerNIC, b.StationID.String(), b.SlotID.String(),
			b.ReservationDateTime, b.DurationMinutes, "Approved", b.CreatedBy,
			nil, approved, nil, nil, b.CreatedAt, b.UpdatedAt,
		))

	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.Status)
	assert.Equal(t, b.Reference, got.Reference)
	require.NotNil(t, got.ApprovedAt)
	assert.True(t, approved.Equal(*got.ApprovedAt))
	assert.Nil(t, got.CancellationReason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CountActiveByStation(t *testing.T) {
	repo, mock := newMock(t)
	stationID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bookings WHERE station_id = $1 AND status IN ($2,$3)")).
		WithArgs(stationID.String(), "Pending", "Approved").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountActiveByStation(context.Background(), stationID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
