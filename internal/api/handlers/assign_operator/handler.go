package assign_operator

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-ChargingBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/stations/models"
)

const (
	route                 = "PUT /stations/{id}/operator"
	msgInvalidStationID   = "некорректный ID станции"
	msgInvalidOperatorID  = "некорректный ID оператора"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgUnauthorized       = "требуется аутентификация"
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

// Handle PUT /api/v1/stations/{stationId}/operator
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

	var req AssignOperatorRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("%s - Invalid request body: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	operatorID, err := uuid.Parse(req.OperatorID)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidOperatorID)
		return
	}

	station, err := h.service.AssignOperator(r.Context(), actor, stationID, operatorID)
	if err != nil {
		handlers.LogFailure(h.logger, route, err)
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("%s - Operator assigned: station_id=%s, operator_id=%s", route, stationID, operatorID)
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainStation(station))
}
