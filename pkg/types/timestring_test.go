package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeStringFromString(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"00:00", false},
		{"09:30", false},
		{"23:59", false},
		{"24:00", false},
		{"24:01", true},
		{"9:30", true},
		{"ab:cd", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := NewTimeStringFromString(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeString)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTimeString_Arithmetic(t *testing.T) {
	ts := TimeString("08:00")
	assert.Equal(t, 480, ts.Minutes())
	assert.Equal(t, 1440, TimeString("24:00").Minutes())

	next, err := ts.AddMinutes(90)
	require.NoError(t, err)
	assert.Equal(t, TimeString("09:30"), next)

	end, err := TimeString("23:00").AddMinutes(60)
	require.NoError(t, err)
	assert.Equal(t, TimeString("24:00"), end)

	_, err = TimeString("23:30").AddMinutes(60)
	assert.ErrorIs(t, err, ErrInvalidTimeString)

	assert.True(t, ts.IsBefore(next))
	assert.True(t, next.IsAfter(ts))
	assert.False(t, ts.IsAfter(ts))
}

func TestTimeString_On(t *testing.T) {
	loc := time.FixedZone("UTC+5:30", 5*3600+1800)
	date := time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC) // 11 марта 01:30 по loc

	got := TimeString("06:15").On(date, loc)
	assert.Equal(t, time.Date(2025, 3, 11, 6, 15, 0, 0, loc), got)
}

func TestTimeString_Scan(t *testing.T) {
	var ts TimeString
	require.NoError(t, ts.Scan("07:45:00"))
	assert.Equal(t, TimeString("07:45"), ts)

	require.NoError(t, ts.Scan([]byte("18:00")))
	assert.Equal(t, TimeString("18:00"), ts)

	require.NoError(t, ts.Scan(nil))
	assert.True(t, ts.IsZero())

	assert.Error(t, ts.Scan(42))
}
