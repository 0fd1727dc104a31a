package validate_qr

import (
	"net/http"

	"github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-ChargingBookingService/internal/api/middleware"
)

const (
	route                 = "POST /bookings/validate-qr"
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

// Handle POST /api/v1/bookings/validate-qr
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	var req ValidateQRRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("%s - Invalid request body: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if req.QRData == "" {
		handlers.RespondBadRequest(w, msgMissingQRData)
		return
	}

	check, err := h.service.ValidateQR(r.Context(), actor, req.QRData)
	if err != nil {
		handlers.LogFailure(h.logger, route, err)
		handlers.RespondDomainError(w, err)
		return
	}

	if !check.IsValid {
		h.logger.Warn("%s - QR rejected: code=%s, actor=%s", route, check.ErrorCode, actor.ID)
	}
	handlers.RespondJSON(w, http.StatusOK, FromQRCheck(check))
}
