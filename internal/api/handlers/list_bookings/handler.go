package list_bookings

import (
	"net/http"

	"github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-ChargingBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/bookings/models"
)

const (
	route           = "GET /bookings"
	msgInvalidQuery = "некорректные параметры фильтра"
	msgUnauthorized = "требуется аутентификация"
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

// Handle GET /api/v1/bookings
// Query params: stationId, ownerNic, status, from, to (все необязательные)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		h.logger.Warn("%s - Invalid filter: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	// Сервис сужает фильтр по роли
	bookings, err := h.service.List(r.Context(), actor, filter)
	if err != nil {
		handlers.LogFailure(h.logger, route, err)
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("%s - Bookings retrieved successfully: actor=%s, role=%s, count=%d",
		route, actor.ID, actor.Role, len(bookings))
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainBookingList(bookings))
}
