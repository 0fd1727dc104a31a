package list_stations

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

var errInvalidType = errors.New("type must be AC or DC")

// ParseFilter собирает фильтр из query параметров: type, city, activeOnly
func ParseFilter(query url.Values) (domain.StationFilter, error) {
	var filter domain.StationFilter

	if v := query.Get("type"); v != "" {
		t := domain.StationType(v)
		if t != domain.StationTypeAC && t != domain.StationTypeDC {
			return filter, errInvalidType
		}
		filter.Type = &t
	}

	filter.City = query.Get("city")

	if v := query.Get("activeOnly"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return filter, err
		}
		filter.ActiveOnly = active
	}

	return filter, nil
}
