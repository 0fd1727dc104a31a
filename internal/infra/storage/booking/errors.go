package booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking.repository: booking not found")

	// ErrStatusMismatch возвращается, когда статус в БД изменился с момента чтения
	ErrStatusMismatch = errors.New("booking.repository: booking status changed concurrently")

	// ErrDuplicateReference возвращается при коллизии booking_reference
	ErrDuplicateReference = errors.New("booking.repository: duplicate booking reference")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("booking.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("booking.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("booking.repository: failed to scan row")
)
