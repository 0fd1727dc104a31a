package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

// maxBodyBytes ограничение на размер тела запроса
const maxBodyBytes = 1 << 20

const msgInternalError = "внутренняя ошибка сервера"

// ErrEmptyBody тело запроса отсутствует
var ErrEmptyBody = errors.New("request body is empty")

// ErrorBody тело ответа с ошибкой
type ErrorBody struct {
	Error ErrorDetails `json:"error"`
}

// ErrorDetails код и сообщение ошибки
type ErrorDetails struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusByCode HTTP статусы кодов доменных ошибок
var statusByCode = map[string]int{
	"ValidationError":           http.StatusBadRequest,
	"InvalidToken":              http.StatusBadRequest,
	"Unauthorized":              http.StatusUnauthorized,
	"Forbidden":                 http.StatusForbidden,
	"NotFound":                  http.StatusNotFound,
	"CapacityExceeded":          http.StatusConflict,
	"TooLateToModify":           http.StatusConflict,
	"InvalidTransition":         http.StatusConflict,
	"TokenAlreadyRedeemed":      http.StatusConflict,
	"BookingNoLongerApprovable": http.StatusConflict,
	"StationInactive":           http.StatusConflict,
	"HasActiveBookings":         http.StatusConflict,
	"Internal":                  http.StatusInternalServerError,
}

// StatusFor возвращает HTTP статус для кода доменной ошибки
func StatusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// RespondJSON отправляет JSON ответ
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// RespondError отправляет ошибку в формате {"error": {"code", "message"}}
func RespondError(w http.ResponseWriter, status int, code, message string) {
	RespondJSON(w, status, ErrorBody{Error: ErrorDetails{Code: code, Message: message}})
}

// RespondDomainError переводит доменную ошибку в HTTP ответ.
// Текст внутренних ошибок наружу не отдаётся.
func RespondDomainError(w http.ResponseWriter, err error) {
	code := domain.ErrorCode(err)
	status := StatusFor(code)
	if status == http.StatusInternalServerError {
		RespondInternalError(w)
		return
	}
	RespondError(w, status, code, err.Error())
}

func RespondBadRequest(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusBadRequest, "ValidationError", message)
}

func RespondUnauthorized(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusUnauthorized, "Unauthorized", message)
}

func RespondForbidden(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusForbidden, "Forbidden", message)
}

func RespondNotFound(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusNotFound, "NotFound", message)
}

func RespondInternalError(w http.ResponseWriter) {
	RespondError(w, http.StatusInternalServerError, "Internal", msgInternalError)
}

// DecodeJSON читает тело запроса в v. Пустое тело считается ошибкой.
func DecodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// PathUUID извлекает uuid из переменной маршрута
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw, ok := mux.Vars(r)[name]
	if !ok || raw == "" {
		return uuid.Nil, fmt.Errorf("path variable %s is missing", name)
	}
	return uuid.Parse(raw)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// LogFailure пишет ошибку обработчика: внутренние как Error, остальные как Warn
func LogFailure(logger Logger, route string, err error) {
	if domain.ErrorCode(err) == "Internal" {
		logger.Error("%s - failed: %v", route, err)
		return
	}
	logger.Warn("%s - rejected: %v", route, err)
}
