package get_upcoming_bookings

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-ChargingBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/bookings/models"
)

const (
	route           = "GET /bookings/upcoming/{nic}"
	msgMissingNIC   = "NIC владельца обязателен"
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

// Handle GET /api/v1/bookings/upcoming/{nic}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	nic := mux.Vars(r)["nic"]
	if nic == "" {
		handlers.RespondBadRequest(w, msgMissingNIC)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	bookings, err := h.service.Upcoming(r.Context(), actor, nic)
	if err != nil {
		handlers.LogFailure(h.logger, route, err)
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("%s - Upcoming bookings retrieved: nic=%s, count=%d", route, nic, len(bookings))
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainBookingList(bookings))
}
