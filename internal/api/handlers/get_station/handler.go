package get_station

import (
	"net/http"

	"github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-ChargingBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/stations/models"
)

const (
	route               = "GET /stations/{id}"
	msgInvalidStationID = "некорректный ID станции"
	msgUnauthorized     = "требуется аутентификация"
)

type Handler struct {
	service StationService
	logger  Logger
}

func NewHandler(service StationService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/stations/{stationId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	stationID, err := handlers.PathUUID(r, "stationId")
	if err != nil {
		h.logger.Warn("%s - Invalid station ID: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidStationID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	station, err := h.service.Get(r.Context(), actor, stationID)
	if err != nil {
		handlers.LogFailure(h.logger, route, err)
		handlers.RespondDomainError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, models.FromDomainStation(station))
}
