package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.NoError(t, h.Compare(hash, "s3cret"))
	assert.Error(t, h.Compare(hash, "wrong"))

	_, err = h.Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestGenerate(t *testing.T) {
	p := Generate(12)
	assert.Len(t, p, 12)
	assert.NotEqual(t, p, Generate(12))
	assert.Len(t, Generate(100), 32)
}
