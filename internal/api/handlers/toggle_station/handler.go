package toggle_station

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-ChargingBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/stations/models"
)

const (
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

// HandleDeactivate PATCH /api/v1/stations/{stationId}/deactivate
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "PATCH /stations/{id}/deactivate", h.service.Deactivate)
}

// HandleReactivate PATCH /api/v1/stations/{stationId}/reactivate
func (h *Handler) HandleReactivate(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "PATCH /stations/{id}/reactivate", h.service.Reactivate)
}

type toggleFunc func(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Station, error)

func (h *Handler) handle(w http.ResponseWriter, r *http.Request, route string, toggle toggleFunc) {
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

	station, err := toggle(r.Context(), actor, stationID)
	if err != nil {
		handlers.LogFailure(h.logger, route, err)
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("%s - Station state changed: station_id=%s, is_active=%t, actor=%s",
		route, stationID, station.IsActive, actor.ID)
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainStation(station))
}
