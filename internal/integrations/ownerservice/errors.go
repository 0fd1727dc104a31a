package ownerservice

import "errors"

var (
	// ErrOwnerNotFound возвращается, когда владелец EV не зарегистрирован
	ErrOwnerNotFound = errors.New("ev owner not found")

	// ErrOwnerInactive возвращается, когда учётная запись владельца деактивирована
	ErrOwnerInactive = errors.New("ev owner account is inactive")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("ownerservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("ownerservice client: invalid response")

	// ErrServiceDegraded возвращается при применении graceful degradation.
	// Каталог владельцев недоступен, проверка статуса пропускается.
	ErrServiceDegraded = errors.New("ownerservice unavailable: graceful degradation applied")
)
