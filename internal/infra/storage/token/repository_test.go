package token

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db), mock
}

func TestRepository_Redeem(t *testing.T) {
	repo, mock := newMock(t)
	id := uuid.New()
	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE verification_tokens SET redeemed_at = $1 WHERE id = $2 AND redeemed_at IS NULL AND revoked_at IS NULL",
	)).
		WithArgs(at, id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Redeem(context.Background(), id, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Redeem_Replay(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec("UPDATE verification_tokens SET redeemed_at").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Redeem(context.Background(), uuid.New(), time.Now())
	assert.ErrorIs(t, err, ErrNotRedeemable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID(t *testing.T) {
	repo, mock := newMock(t)
	id, bookingID := uuid.New(), uuid.New()
	issued := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM verification_tokens WHERE id = \\$1").
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(id.String(), bookingID.String(), issued, issued.Add(time.Hour), nil, issued))

	tok, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, bookingID, tok.BookingID)
	assert.False(t, tok.IsRedeemed())
	assert.True(t, tok.IsRevoked())
	assert.NoError(t, mock.ExpectationsWereMet())
}
