package deactivate_operator

import (
	"net/http"

	"github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-ChargingBookingService/internal/api/middleware"
)

const (
	route                = "PATCH /operators/{id}/deactivate"
	msgInvalidOperatorID = "некорректный ID оператора"
	msgUnauthorized      = "требуется аутентификация"
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

// Handle PATCH /api/v1/operators/{operatorId}/deactivate
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	operatorID, err := handlers.PathUUID(r, "operatorId")
	if err != nil {
		h.logger.Warn("%s - Invalid operator ID: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidOperatorID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	if err := h.service.DeactivateOperator(r.Context(), actor, operatorID); err != nil {
		handlers.LogFailure(h.logger, route, err)
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("%s - Operator deactivated: operator_id=%s, actor=%s", route, operatorID, actor.ID)
	w.WriteHeader(http.StatusNoContent)
}
