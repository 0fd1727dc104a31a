package domain

import "github.com/m04kA/SMC-ChargingBookingService/pkg/types"

// Station defaults
const (
	DefaultOpenTime  types.TimeString = "00:00"
	DefaultCloseTime types.TimeString = "24:00"
	DefaultTimezone                   = "UTC"
)

// Business validation constants
const (
	MinTotalSockets             = 1
	MinSlotsPerDay              = 1
	MaxSlotsPerDay              = 48
	MinSlotLengthMinutes        = 5
	MaxStationNameLength        = 200
	MaxCancellationReasonLength = 500
	ReferenceSuffixLength       = 6
)

// Booking window defaults, overridable from config
const (
	DefaultMaxAdvanceDays         = 7
	DefaultModificationCutoffHrs  = 12
	DefaultMinDurationMinutes     = 30
	DefaultMaxDurationMinutes     = 240
	DefaultDurationStepMinutes    = 30
	DefaultScheduleHorizonDays    = 8
	DefaultOperatorPasswordLength = 12
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// ActiveStatuses statuses of bookings that still hold slots and can change
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusApproved,
}

// HoldingStatuses statuses of bookings whose slots stay reserved
var HoldingStatuses = []BookingStatus{
	StatusPending,
	StatusApproved,
	StatusCompleted,
}
