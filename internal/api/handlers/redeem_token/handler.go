package redeem_token

import (
	"net/http"

	"github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-ChargingBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/bookings/models"
)

const (
	route                 = "POST /tokens/redeem"
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

// Handle POST /api/v1/tokens/redeem
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	var req RedeemTokenRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("%s - Invalid request body: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if req.Token == "" {
		handlers.RespondBadRequest(w, msgMissingToken)
		return
	}

	expected, err := req.ExpectedBookingID()
	if err != nil {
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	booking, err := h.service.Redeem(r.Context(), actor, req.Token, expected)
	if err != nil {
		handlers.LogFailure(h.logger, route, err)
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("%s - Token redeemed, booking completed: booking_id=%s, actor=%s", route, booking.ID, actor.ID)
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainBooking(booking))
}
