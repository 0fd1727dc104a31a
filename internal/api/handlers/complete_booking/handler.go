package complete_booking

import (
	"net/http"

	"github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-ChargingBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/bookings/models"
)

const (
	route                 = "PATCH /bookings/{id}/complete"
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingQRData      = "qrData обязателен"
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

// Handle PATCH /api/v1/bookings/{bookingId}/complete
// Завершить бронирование можно только предъявив его токен
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, err := handlers.PathUUID(r, "bookingId")
	if err != nil {
		h.logger.Warn("%s - Invalid booking ID: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	var req CompleteBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("%s - Invalid request body: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if req.QRData == "" {
		handlers.RespondBadRequest(w, msgMissingQRData)
		return
	}

	booking, err := h.service.Redeem(r.Context(), actor, req.QRData, &bookingID)
	if err != nil {
		handlers.LogFailure(h.logger, route, err)
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("%s - Booking completed: booking_id=%s, actor=%s", route, bookingID, actor.ID)
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainBooking(booking))
}
