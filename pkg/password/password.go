package password

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword пустой пароль не хэшируется
var ErrEmptyPassword = errors.New("password: empty password")

// BcryptHasher хэширует пароли bcrypt
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher cost=0 означает bcrypt.DefaultCost
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

const alphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Generate возвращает случайный пароль длины n (не больше 32 символов)
func Generate(n int) string {
	a, b := uuid.New(), uuid.New()
	random := append(a[:], b[:]...)
	if n > len(random) {
		n = len(random)
	}
	out := make([]byte, n)
	for i := range out {
		out[i] = alphabet[int(random[i])%len(alphabet)]
	}
	return string(out)
}
