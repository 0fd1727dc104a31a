package delete_station

import (
	"net/http"

	"github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-ChargingBookingService/internal/api/middleware"
)

const (
	route               = "DELETE /stations/{id}"
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

// Handle DELETE /api/v1/stations/{stationId}
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

	if err := h.service.Delete(r.Context(), actor, stationID); err != nil {
		handlers.LogFailure(h.logger, route, err)
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("%s - Station deleted: station_id=%s, actor=%s", route, stationID, actor.ID)
	w.WriteHeader(http.StatusNoContent)
}
