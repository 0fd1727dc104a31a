package validate_token

import (
	"net/http"

	"github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-ChargingBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/bookings/models"
)

const (
	route                 = "POST /tokens/validate"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingToken       = "токен обязателен"
	msgUnauthorized       = "требуется аутентификация"
)

type Handler struct {
	service VerificationService
	logger  Logger
}

func NewHandler(service VerificationService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/tokens/validate
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	var req ValidateTokenRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("%s - Invalid request body: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if req.Token == "" {
		handlers.RespondBadRequest(w, msgMissingToken)
		return
	}

	snapshot, err := h.service.Validate(r.Context(), actor, req.Token)
	if err != nil {
		handlers.LogFailure(h.logger, route, err)
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("%s - Token valid: token_id=%s, booking_id=%s, actor=%s",
		route, snapshot.TokenID, snapshot.Booking.ID, actor.ID)
	handlers.RespondJSON(w, http.StatusOK, models.FromTokenSnapshot(snapshot))
}
