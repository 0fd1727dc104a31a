package domain

import "errors"

// Error taxonomy shared by every layer. Services wrap these with context,
// handlers map them to HTTP statuses with errors.Is.
var (
	ErrValidation                = errors.New("validation error")
	ErrCapacityExceeded          = errors.New("capacity exceeded")
	ErrTooLateToModify           = errors.New("too late to modify")
	ErrInvalidTransition         = errors.New("invalid transition")
	ErrForbidden                 = errors.New("forbidden")
	ErrInvalidToken              = errors.New("invalid token")
	ErrTokenAlreadyRedeemed      = errors.New("token already redeemed")
	ErrBookingNoLongerApprovable = errors.New("booking no longer approvable")
	ErrStationInactive           = errors.New("station inactive")
	ErrHasActiveBookings         = errors.New("station has active bookings")
	ErrNotFound                  = errors.New("not found")
	ErrUnauthorized              = errors.New("unauthorized")
	ErrInternal                  = errors.New("internal error")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrValidation, "ValidationError"},
	{ErrCapacityExceeded, "CapacityExceeded"},
	{ErrTooLateToModify, "TooLateToModify"},
	{ErrInvalidTransition, "InvalidTransition"},
	{ErrForbidden, "Forbidden"},
	{ErrInvalidToken, "InvalidToken"},
	{ErrTokenAlreadyRedeemed, "TokenAlreadyRedeemed"},
	{ErrBookingNoLongerApprovable, "BookingNoLongerApprovable"},
	{ErrStationInactive, "StationInactive"},
	{ErrHasActiveBookings, "HasActiveBookings"},
	{ErrNotFound, "NotFound"},
	{ErrUnauthorized, "Unauthorized"},
	{ErrInternal, "Internal"},
}

// ErrorCode returns the stable code of the first taxonomy error in err's chain,
// or "Internal" for anything unclassified.
func ErrorCode(err error) string {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return "Internal"
}
