package pgerr

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestCode_BothDrivers(t *testing.T) {
	pqErr := fmt.Errorf("exec: %w", &pq.Error{Code: "40001"})
	pgxErr := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"})

	assert.True(t, IsRetryable(pqErr))
	assert.False(t, IsUniqueViolation(pqErr))

	assert.True(t, IsUniqueViolation(pgxErr))
	assert.False(t, IsRetryable(pgxErr))

	assert.Equal(t, "", Code(assert.AnError))
	assert.False(t, IsRetryable(nil))
}
