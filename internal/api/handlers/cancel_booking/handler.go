package cancel_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-ChargingBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/bookings/models"
)

const (
	route                 = "PATCH /bookings/{id}/cancel"
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgUnauthorized       = "требуется аутентификация"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/bookings/{bookingId}/cancel
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

	// Тело необязательно
	var req CancelBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil && !errors.Is(err, handlers.ErrEmptyBody) {
		h.logger.Warn("%s - Invalid request body: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	booking, err := h.service.Cancel(r.Context(), actor, bookingID, req.Reason())
	if err != nil {
		handlers.LogFailure(h.logger, route, err)
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("%s - Booking cancelled successfully: booking_id=%s, actor=%s", route, bookingID, actor.ID)
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainBooking(booking))
}
