package can_modify_booking

import (
	"net/http"

	"github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-ChargingBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/bookings/models"
)

const (
	route               = "GET /bookings/{id}/can-modify"
	msgInvalidBookingID = "некорректный ID бронирования"
	msgUnauthorized     = "требуется аутентификация"
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

// Handle GET /api/v1/bookings/{bookingId}/can-modify
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

	check, err := h.service.CanModify(r.Context(), actor, bookingID)
	if err != nil {
		handlers.LogFailure(h.logger, route, err)
		handlers.RespondDomainError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, models.FromModifyCheck(check))
}
