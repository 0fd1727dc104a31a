package domain

// Role of an authenticated caller
type Role string

const (
	RoleBackoffice      Role = "Backoffice"
	RoleStationOperator Role = "StationOperator"
	RoleEVOwner         Role = "EVOwner"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleBackoffice, RoleStationOperator, RoleEVOwner:
		return true
	}
	return false
}

// Actor is the caller of an operation. For EV owners ID is the NIC,
// for operators the operator account id.
type Actor struct {
	ID   string
	Role Role
}

// System is used for internal transitions such as token redemption completing a booking
var System = Actor{ID: "system", Role: RoleBackoffice}
