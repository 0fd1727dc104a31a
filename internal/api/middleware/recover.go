package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Recover превращает панику обработчика в 500 и пишет стек в лог
func Recover(logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					logger.Error("%s %s - panic: %v\n%s", r.Method, r.URL.Path, p, debug.Stack())
					handlers.RespondInternalError(w)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
