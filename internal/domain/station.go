package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/pkg/types"
)

// StationType is the kind of charger installed at a station
type StationType string

const (
	StationTypeAC StationType = "AC"
	StationTypeDC StationType = "DC"
)

// Location describes where a station is
type Location struct {
	Address   string
	City      string
	Latitude  float64
	Longitude float64
}

// Station is a charging site with a fixed number of sockets
type Station struct {
	ID           uuid.UUID
	Name         string
	Type         StationType
	Location     Location
	TotalSockets int
	SlotsPerDay  int
	OpenTime     types.TimeString
	CloseTime    types.TimeString
	Timezone     string
	OperatorID   *uuid.UUID
	IsActive     bool

	CreatedAt time.Time
	UpdatedAt time.Time

	// Filled on detail reads only
	AvailableSlots []*Slot
}

// StationConfig holds the editable part of a station
type StationConfig struct {
	Name         string
	Type         StationType
	Location     Location
	TotalSockets int
	SlotsPerDay  int
	OpenTime     types.TimeString
	CloseTime    types.TimeString
	Timezone     string
	IsActive     *bool
}

// Normalize fills defaulted fields in place
func (c *StationConfig) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Type = StationType(strings.ToUpper(string(c.Type)))
	if c.OpenTime.IsZero() {
		c.OpenTime = DefaultOpenTime
	}
	if c.CloseTime.IsZero() {
		c.CloseTime = DefaultCloseTime
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
}

// Validate checks bounds. Call Normalize first.
func (c *StationConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: station name is required", ErrValidation)
	}
	if len(c.Name) > MaxStationNameLength {
		return fmt.Errorf("%w: station name exceeds %d characters", ErrValidation, MaxStationNameLength)
	}
	if c.Type != StationTypeAC && c.Type != StationTypeDC {
		return fmt.Errorf("%w: station type must be AC or DC", ErrValidation)
	}
	if c.TotalSockets < MinTotalSockets {
		return fmt.Errorf("%w: totalSockets must be at least %d", ErrValidation, MinTotalSockets)
	}
	if c.SlotsPerDay < MinSlotsPerDay || c.SlotsPerDay > MaxSlotsPerDay {
		return fmt.Errorf("%w: slotsPerDay must be between %d and %d", ErrValidation, MinSlotsPerDay, MaxSlotsPerDay)
	}
	if c.Location.Latitude < -90 || c.Location.Latitude > 90 || c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		return fmt.Errorf("%w: coordinates out of range", ErrValidation)
	}
	if err := c.OpenTime.Validate(); err != nil {
		return fmt.Errorf("%w: openTime: %v", ErrValidation, err)
	}
	if err := c.CloseTime.Validate(); err != nil {
		return fmt.Errorf("%w: closeTime: %v", ErrValidation, err)
	}
	if !c.OpenTime.IsBefore(c.CloseTime) {
		return fmt.Errorf("%w: openTime must be before closeTime", ErrValidation)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrValidation, c.Timezone)
	}

	window := c.CloseTime.Minutes() - c.OpenTime.Minutes()
	if window%c.SlotsPerDay != 0 {
		return fmt.Errorf("%w: operating window of %d minutes is not divisible into %d slots", ErrValidation, window, c.SlotsPerDay)
	}
	if window/c.SlotsPerDay < MinSlotLengthMinutes {
		return fmt.Errorf("%w: slot length must be at least %d minutes", ErrValidation, MinSlotLengthMinutes)
	}
	return nil
}

// Apply copies the config onto the station
func (s *Station) Apply(c StationConfig) {
	s.Name = c.Name
	s.Type = c.Type
	s.Location = c.Location
	s.TotalSockets = c.TotalSockets
	s.SlotsPerDay = c.SlotsPerDay
	s.OpenTime = c.OpenTime
	s.CloseTime = c.CloseTime
	s.Timezone = c.Timezone
	if c.IsActive != nil {
		s.IsActive = *c.IsActive
	}
}

// ScheduleDiffers reports whether c changes how slots are laid out
func (s *Station) ScheduleDiffers(c StationConfig) bool {
	return s.SlotsPerDay != c.SlotsPerDay ||
		s.OpenTime != c.OpenTime ||
		s.CloseTime != c.CloseTime ||
		s.Timezone != c.Timezone ||
		s.TotalSockets != c.TotalSockets
}

// Loc returns the station's time zone, falling back to UTC
func (s *Station) Loc() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlotLength is the duration of a single slot
func (s *Station) SlotLength() time.Duration {
	if s.SlotsPerDay <= 0 {
		return 0
	}
	window := s.CloseTime.Minutes() - s.OpenTime.Minutes()
	return time.Duration(window/s.SlotsPerDay) * time.Minute
}

// IsOperatedBy reports whether operatorID is assigned to the station
func (s *Station) IsOperatedBy(operatorID string) bool {
	return s.OperatorID != nil && s.OperatorID.String() == operatorID
}

// StationFilter filters station listings
type StationFilter struct {
	Type       *StationType
	ActiveOnly bool
	OperatorID *uuid.UUID
	City       string
}
