package token

import "errors"

var (
	// ErrTokenNotFound возвращается, когда запись токена не найдена
	ErrTokenNotFound = errors.New("token.repository: token not found")

	// ErrNotRedeemable возвращается, когда токен уже погашен или отозван
	ErrNotRedeemable = errors.New("token.repository: token already redeemed or revoked")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("token.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("token.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("token.repository: failed to scan row")
)
