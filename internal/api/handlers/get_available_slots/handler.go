package get_available_slots

import (
	"net/http"

	"github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-ChargingBookingService/internal/api/middleware"
)

const (
	route               = "GET /stations/{id}/availability"
	msgInvalidStationID = "некорректный ID станции"
	msgMissingDate      = "дата обязательна"
	msgInvalidQuery     = "некорректный формат параметров, ожидается date=YYYY-MM-DD и duration в минутах"
	msgUnauthorized     = "требуется аутентификация"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/stations/{stationId}/availability
// Query params: date (required, YYYY-MM-DD), duration (optional, минуты)
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

	query := r.URL.Query()
	dateStr := query.Get("date")
	if dateStr == "" {
		h.logger.Warn("%s - Missing date", route)
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	useCaseReq, err := ToUseCaseRequest(stationID, dateStr, query.Get("duration"))
	if err != nil {
		h.logger.Warn("%s - Invalid query: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	result, err := h.useCase.Execute(r.Context(), actor, useCaseReq)
	if err != nil {
		handlers.LogFailure(h.logger, route, err)
		handlers.RespondDomainError(w, err)
		return
	}

	h.logger.Info("%s - Slots retrieved successfully: station_id=%s, date=%s, slots_count=%d",
		route, stationID, dateStr, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
