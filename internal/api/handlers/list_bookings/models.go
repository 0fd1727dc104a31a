package list_bookings

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-ChargingBookingService/pkg/ptr"
)

// ParseFilter собирает фильтр из query параметров
// stationId, ownerNic, status, from, to (RFC3339)
func ParseFilter(query url.Values) (domain.BookingFilter, error) {
	var filter domain.BookingFilter

	if v := query.Get("stationId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, fmt.Errorf("stationId: %w", err)
		}
		filter.StationID = ptr.Ptr(id)
	}

	if v := query.Get("ownerNic"); v != "" {
		filter.OwnerNIC = ptr.Ptr(v)
	}

	if v := query.Get("status"); v != "" {
		status, err := models.ToDomainBookingStatus(v)
		if err != nil {
			return filter, fmt.Errorf("status: %w", err)
		}
		filter.Status = ptr.Ptr(status)
	}

	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		v := query.Get(name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, fmt.Errorf("%s: %w", name, err)
		}
		*dst = ptr.Ptr(t)
	}

	return filter, nil
}
