package verification

import (
	"fmt"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = fmt.Errorf("%w: booking not found", domain.ErrNotFound)

	// ErrMalformedToken возвращается, когда строку токена не удалось разобрать или подпись неверна
	ErrMalformedToken = fmt.Errorf("%w: token is malformed or has a bad signature", domain.ErrInvalidToken)

	// ErrTokenExpired возвращается после окончания бронирования
	ErrTokenExpired = fmt.Errorf("%w: token has expired", domain.ErrInvalidToken)

	// ErrUnknownToken возвращается, когда записи токена нет в хранилище
	ErrUnknownToken = fmt.Errorf("%w: token was not issued by this service", domain.ErrInvalidToken)

	// ErrWrongBooking возвращается, когда токен выпущен для другого бронирования
	ErrWrongBooking = fmt.Errorf("%w: token belongs to another booking", domain.ErrInvalidToken)

	// ErrAlreadyRedeemed возвращается при повторном погашении
	ErrAlreadyRedeemed = fmt.Errorf("%w: token has already been used", domain.ErrTokenAlreadyRedeemed)

	// ErrRevoked возвращается, когда токен отозван отменой или переносом бронирования
	ErrRevoked = fmt.Errorf("%w: token was revoked", domain.ErrBookingNoLongerApprovable)

	// ErrNotApproved возвращается, когда бронирование больше не подтверждено
	ErrNotApproved = fmt.Errorf("%w: booking is not approved", domain.ErrBookingNoLongerApprovable)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = fmt.Errorf("verification: %w", domain.ErrInternal)
)
