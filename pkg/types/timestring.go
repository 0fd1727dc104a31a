package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTimeString is returned when a value is not in HH:MM form
var ErrInvalidTimeString = errors.New("invalid time string format")

const (
	minutesPerDay = 24 * 60
	layout        = "15:04"
	endOfDay      = "24:00"
)

// TimeString is a wall-clock time of day in HH:MM form.
// "24:00" is accepted as the end-of-day bound for operating hours.
type TimeString string

// NewTimeString takes the hour and minute of t
func NewTimeString(t time.Time) TimeString {
	return TimeString(t.Format(layout))
}

// NewTimeStringFromString parses and validates s
func NewTimeStringFromString(s string) (TimeString, error) {
	ts := TimeString(s)
	if err := ts.Validate(); err != nil {
		return "", err
	}
	return ts, nil
}

// NewTimeStringFromMinutes builds a TimeString from minutes since midnight
func NewTimeStringFromMinutes(minutes int) (TimeString, error) {
	if minutes < 0 || minutes > minutesPerDay {
		return "", fmt.Errorf("%w: %d minutes out of range", ErrInvalidTimeString, minutes)
	}
	return TimeString(fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)), nil
}

// Validate checks the HH:MM format
func (t TimeString) Validate() error {
	if t == endOfDay {
		return nil
	}
	if len(t) != len(layout) {
		return ErrInvalidTimeString
	}
	if _, err := time.Parse(layout, string(t)); err != nil {
		return ErrInvalidTimeString
	}
	return nil
}

// IsZero reports whether the value is empty
func (t TimeString) IsZero() bool {
	return t == ""
}

func (t TimeString) String() string {
	return string(t)
}

// Minutes returns minutes since midnight; invalid values yield -1
func (t TimeString) Minutes() int {
	if t == endOfDay {
		return minutesPerDay
	}
	parsed, err := time.Parse(layout, string(t))
	if err != nil {
		return -1
	}
	return parsed.Hour()*60 + parsed.Minute()
}

// AddMinutes shifts the time, failing when the result leaves the day
func (t TimeString) AddMinutes(minutes int) (TimeString, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	return NewTimeStringFromMinutes(t.Minutes() + minutes)
}

// IsBefore reports whether t is strictly earlier than other
func (t TimeString) IsBefore(other TimeString) bool {
	return t.Minutes() < other.Minutes()
}

// IsAfter reports whether t is strictly later than other
func (t TimeString) IsAfter(other TimeString) bool {
	return t.Minutes() > other.Minutes()
}

// On places the time of day on the calendar day of date in loc
func (t TimeString) On(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc).Add(time.Duration(t.Minutes()) * time.Minute)
}

// Scan implements sql.Scanner
func (t *TimeString) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = ""
		return nil
	case string:
		return t.assign(v)
	case []byte:
		return t.assign(string(v))
	case time.Time:
		*t = NewTimeString(v)
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidTimeString, src)
	}
}

func (t *TimeString) assign(s string) error {
	// TIME колонки PostgreSQL приходят как HH:MM:SS
	if len(s) == len("15:04:05") {
		s = s[:len(layout)]
	}
	parsed, err := NewTimeStringFromString(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements driver.Valuer
func (t TimeString) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return string(t), nil
}
