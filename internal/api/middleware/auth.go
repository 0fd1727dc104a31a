package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/m04kA/SMC-ChargingBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-ChargingBookingService/internal/domain"
)

type contextKey string

const actorKey contextKey = "actor"

// Заголовки, которые выставляет API gateway при trust_headers
const (
	HeaderUserID   = "User-Id"
	HeaderUserRole = "User-Role"
)

// Claims полезная нагрузка токена доступа
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthConfig настройки аутентификации
type AuthConfig struct {
	Secret       string
	TrustHeaders bool
}

// Auth проверяет Bearer JWT (HS256) и кладёт в контекст вызывающего.
// При TrustHeaders без Authorization принимаются заголовки User-Id и User-Role.
func Auth(cfg AuthConfig, logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := authenticate(r, cfg)
			if err != nil {
				logger.Warn("%s %s - unauthorized: %v", r.Method, r.URL.Path, err)
				handlers.RespondUnauthorized(w, "требуется аутентификация")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func authenticate(r *http.Request, cfg AuthConfig) (domain.Actor, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if cfg.TrustHeaders && r.Header.Get(HeaderUserID) != "" {
			return actorOf(r.Header.Get(HeaderUserID), r.Header.Get(HeaderUserRole))
		}
		return domain.Actor{}, fmt.Errorf("missing authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return domain.Actor{}, fmt.Errorf("invalid authorization header")
	}

	claims, err := ParseAccessToken(strings.TrimSpace(parts[1]), cfg.Secret)
	if err != nil {
		return domain.Actor{}, err
	}
	return actorOf(claims.UserID, claims.Role)
}

// ParseAccessToken проверяет токен доступа и возвращает claims
func ParseAccessToken(raw, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// SignAccessToken выпускает токен доступа, используется в тестах и утилитах
func SignAccessToken(actor domain.Actor, secret string, claims jwt.RegisteredClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:           actor.ID,
		Role:             string(actor.Role),
		RegisteredClaims: claims,
	})
	return token.SignedString([]byte(secret))
}

func actorOf(id, role string) (domain.Actor, error) {
	actor := domain.Actor{ID: strings.TrimSpace(id), Role: domain.Role(strings.TrimSpace(role))}
	if actor.ID == "" {
		return domain.Actor{}, fmt.Errorf("user id not present")
	}
	if !actor.Role.Valid() {
		return domain.Actor{}, fmt.Errorf("unknown role %q", role)
	}
	return actor, nil
}

// WithActor кладёт вызывающего в контекст
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// GetActor извлекает вызывающего из контекста
func GetActor(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(domain.Actor)
	return actor, ok
}
