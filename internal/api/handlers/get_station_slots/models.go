package get_station_slots

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/service/stations"
)

// ParseQuery собирает выборку слотов из query параметров: from, to (RFC3339), availableOnly
func ParseQuery(stationID uuid.UUID, query url.Values) (stations.SlotQuery, error) {
	q := stations.SlotQuery{StationID: stationID}

	if v := query.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return q, fmt.Errorf("from: %w", err)
		}
		q.From = &t
	}
	if v := query.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return q, fmt.Errorf("to: %w", err)
		}
		q.To = &t
	}
	if v := query.Get("availableOnly"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, fmt.Errorf("availableOnly: %w", err)
		}
		q.AvailableOnly = b
	}
	return q, nil
}
