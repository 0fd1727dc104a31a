package slot

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
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

func TestRepository_Reserve_ConditionalUpdate(t *testing.T) {
	repo, mock := newMock(t)
	bookingID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE slots SET is_available = $1, booking_id = $2 WHERE id IN ($3,$4) AND is_available = $5",
	)).
		WithArgs(false, bookingID.String(), ids[0].String(), ids[1].String(), true).
		WillReturnResult(sqlmock.NewResult(0, 2))

	affected, err := repo.Reserve(context.Background(), ids, bookingID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Reserve_LostRace(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec("UPDATE slots SET is_available").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Reserve(context.Background(), []uuid.UUID{uuid.New(), uuid.New()}, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_InsertIfAbsent_SkipsExisting(t *testing.T) {
	repo, mock := newMock(t)
	stationID := uuid.New()
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	slots := []*domain.Slot{
		{ID: domain.SlotID(stationID, 1, start), StationID: stationID, Socket: 1, StartTime: start, EndTime: start.Add(time.Hour), IsAvailable: true},
		{ID: domain.SlotID(stationID, 2, start), StationID: stationID, Socket: 2, StartTime: start, EndTime: start.Add(time.Hour), IsAvailable: true},
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO slots (id,station_id,socket,start_time,end_time,is_available,booking_id) VALUES")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inserted, err := repo.InsertIfAbsent(context.Background(), slots)
	require.NoError(t, err)
	assert.Equal(t, int64(1), inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM slots WHERE id = \\$1").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSlotNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListByBooking(t *testing.T) {
	repo, mock := newMock(t)
	stationID, bookingID := uuid.New(), uuid.New()
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM slots WHERE booking_id = \\$1 ORDER BY start_time ASC").
		WithArgs(bookingID.String()).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(uuid.NewString(), stationID.String(), 1, start, start.Add(time.Hour), false, bookingID.String()).
			AddRow(uuid.NewString(), stationID.String(), 1, start.Add(time.Hour), start.Add(2*time.Hour), false, bookingID.String()))

	slots, err := repo.ListByBooking(context.Background(), bookingID)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, bookingID, *slots[0].BookingID)
	assert.True(t, slots[1].IsHeld())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListHeldOverlapping(t *testing.T) {
	repo, mock := newMock(t)
	stationID, bookingID := uuid.New(), uuid.New()
	from := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, station_id, socket, start_time, end_time, is_available, booking_id FROM slots "+
			"WHERE is_available = $1 AND station_id = $2 AND start_time < $3 AND end_time > $4 ORDER BY start_time ASC, socket ASC",
	)).
		WithArgs(false, stationID.String(), to, from).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(uuid.NewString(), stationID.String(), 1, from.Add(-time.Hour), to, false, bookingID.String()))

	held, err := repo.ListHeldOverlapping(context.Background(), stationID, from, to)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, 1, held[0].Socket)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListRange(t *testing.T) {
	repo, mock := newMock(t)
	stationID := uuid.New()
	from := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	to := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, station_id, socket, start_time, end_time, is_available, booking_id FROM slots "+
			"WHERE station_id = $1 AND start_time < $2 AND end_time > $3 ORDER BY start_time ASC, socket ASC",
	)).
		WithArgs(stationID.String(), to, from).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(uuid.NewString(), stationID.String(), 2, from.Add(-30*time.Minute), from.Add(90*time.Minute), true, nil))

	got, err := repo.ListRange(context.Background(), stationID, from, to)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_DeleteAvailable_KeepsHeld(t *testing.T) {
	repo, mock := newMock(t)
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM slots WHERE id IN ($1,$2) AND is_available = $3")).
		WithArgs(ids[0].String(), ids[1].String(), true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.DeleteAvailable(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
