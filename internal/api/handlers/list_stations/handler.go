package list_stations

import (
	"net/http"

	"github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-ChargingBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
	"github.com/m04kA/SMC-ChargingBookingService/internal/service/stations/models"
)

const (
	route           = "GET /stations"
	routeMine       = "GET /stations/my"
	msgInvalidQuery = "некорректные параметры фильтра"
	msgUnauthorized = "требуется аутентификация"
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

// Handle GET /api/v1/stations
// Query params: type, city, activeOnly
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

	list, err := h.service.List(r.Context(), actor, filter)
	h.respond(w, route, actor, list, err)
}

// HandleMine GET /api/v1/stations/my
// Станции, закреплённые за оператором
func (h *Handler) HandleMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	list, err := h.service.MyStations(r.Context(), actor)
	h.respond(w, routeMine, actor, list, err)
}

func (h *Handler) respond(w http.ResponseWriter, route string, actor domain.Actor, list []*domain.Station, err error) {
	if err != nil {
		handlers.LogFailure(h.logger, route, err)
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("%s - Stations retrieved successfully: actor=%s, count=%d", route, actor.ID, len(list))
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainStationList(list))
}
