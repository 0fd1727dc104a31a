package verification

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

// Claims полезная нагрузка токена подтверждения
type Claims struct {
	BookingID           string    `json:"bookingId"`
	BookingReference    string    `json:"bookingReference"`
	OwnerNIC            string    `json:"ownerNic"`
	StationID           string    `json:"stationId"`
	ReservationDateTime time.Time `json:"reservationDateTime"`
	DurationMinutes     int       `json:"durationMinutes"`
	jwt.RegisteredClaims
}

// Signer подписывает и проверяет токены HS256
type Signer struct {
	key    []byte
	issuer string
}

// NewSigner создает подписчика токенов
func NewSigner(key, issuer string) *Signer {
	return &Signer{key: []byte(key), issuer: issuer}
}

// Sign выпускает токен с jti = tokenID, действующий до конца бронирования
func (s *Signer) Sign(tokenID uuid.UUID, b *domain.Booking, issuedAt time.Time) (string, error) {
	claims := Claims{
		BookingID:           b.ID.String(),
		BookingReference:    b.Reference,
		OwnerNIC:            b.OwnerNIC,
		StationID:           b.StationID.String(),
		ReservationDateTime: b.ReservationDateTime.UTC(),
		DurationMinutes:     b.DurationMinutes,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID.String(),
			Issuer:    s.issuer,
			Subject:   b.OwnerNIC,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(b.End()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

// Parse проверяет подпись и срок действия относительно now и возвращает jti и claims
func (s *Signer) Parse(raw string, now time.Time) (uuid.UUID, *Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, nil, ErrTokenExpired
		}
		return uuid.Nil, nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return uuid.Nil, nil, ErrMalformedToken
	}

	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("%w: jti is not a uuid", ErrMalformedToken)
	}
	return id, claims, nil
}
