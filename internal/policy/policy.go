// Package policy decides which actor may perform which action on which resource.
// It is pure: callers load the station and booking and pass them in.
package policy

import (
	"fmt"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

// Action is an operation subject to authorization
type Action string

const (
	ActionCreateStation  Action = "station.create"
	ActionEditStation    Action = "station.edit"
	ActionToggleStation  Action = "station.toggle"
	ActionDeleteStation  Action = "station.delete"
	ActionViewStation    Action = "station.view"
	ActionAssignOperator Action = "station.assign_operator"
	ActionManageOperator Action = "operator.manage"

	ActionCreateBooking  Action = "booking.create"
	ActionViewBooking    Action = "booking.view"
	ActionListBookings   Action = "booking.list"
	ActionUpdateBooking  Action = "booking.update"
	ActionCancelBooking  Action = "booking.cancel"
	ActionApproveBooking Action = "booking.approve"

	ActionIssueToken    Action = "token.issue"
	ActionValidateToken Action = "token.validate"
	ActionRedeemToken   Action = "token.redeem"
)

// Resource is what the action touches. Station is the station the booking
// belongs to (or the station itself); OwnerNIC is used for create, where no
// booking exists yet.
type Resource struct {
	Station  *domain.Station
	Booking  *domain.Booking
	OwnerNIC string
}

// Decision result of an authorization check
type Decision struct {
	Allowed bool
	Reason  string
}

// Err returns nil when allowed, otherwise an error wrapping domain.ErrForbidden
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrForbidden, d.Reason)
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(format string, args ...interface{}) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

// operatorActions actions an operator may take on its assigned station
var operatorActions = map[Action]bool{
	ActionApproveBooking: true,
	ActionCancelBooking:  true,
	ActionRedeemToken:    true,
	ActionValidateToken:  true,
	ActionIssueToken:     true,
	ActionViewBooking:    true,
	ActionListBookings:   true,
	ActionToggleStation:  true,
	ActionViewStation:    true,
}

// ownerActions actions an EV owner may take on their own bookings
var ownerActions = map[Action]bool{
	ActionCreateBooking: true,
	ActionViewBooking:   true,
	ActionListBookings:  true,
	ActionUpdateBooking: true,
	ActionCancelBooking: true,
	ActionIssueToken:    true,
	ActionViewStation:   true,
}

// Authorize decides whether actor may perform action on resource
func Authorize(actor domain.Actor, action Action, resource Resource) Decision {
	if actor.ID == "" || !actor.Role.Valid() {
		return deny("unknown actor")
	}

	switch actor.Role {
	case domain.RoleBackoffice:
		return allow()
	case domain.RoleStationOperator:
		return authorizeOperator(actor, action, resource)
	case domain.RoleEVOwner:
		return authorizeOwner(actor, action, resource)
	}
	return deny("unknown role %q", actor.Role)
}

func authorizeOperator(actor domain.Actor, action Action, resource Resource) Decision {
	if !operatorActions[action] {
		return deny("station operators cannot perform %s", action)
	}
	// Список без станции: выборку ограничит сервис по назначенным станциям
	if action == ActionListBookings && resource.Station == nil {
		return allow()
	}
	if resource.Station == nil {
		return deny("station is required to authorize %s", action)
	}
	if !resource.Station.IsOperatedBy(actor.ID) {
		return deny("operator is not assigned to station %s", resource.Station.ID)
	}
	return allow()
}

func authorizeOwner(actor domain.Actor, action Action, resource Resource) Decision {
	if !ownerActions[action] {
		return deny("EV owners cannot perform %s", action)
	}

	switch {
	case action == ActionViewStation:
		return allow()
	case resource.Booking != nil:
		if resource.Booking.OwnerNIC != actor.ID {
			return deny("booking belongs to another owner")
		}
		return allow()
	case action == ActionCreateBooking:
		if resource.OwnerNIC != actor.ID {
			return deny("EV owners can only book for themselves")
		}
		return allow()
	case action == ActionListBookings:
		if resource.OwnerNIC != actor.ID {
			return deny("EV owners can only list their own bookings")
		}
		return allow()
	}
	return deny("booking is required to authorize %s", action)
}
