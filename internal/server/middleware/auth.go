package middleware

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/zkvault/internal/server/handlers"
)

// AuthMiddleware проверяет JWT access token и кладет user_id и email в контекст.
// Все запросы к данным пользователя идут только через него.
func AuthMiddleware(logger *slog.Logger, jwtConfig handlers.JWTConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := handlers.BearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "missing or malformed Authorization header", slog.String("path", r.URL.Path))
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid token")
				return
			}

			claims, err := handlers.ValidateAccessToken(jwtConfig, token)
			if err != nil {
				logger.WarnContext(ctx, "invalid access token", slog.Any("error", err))
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			logger.DebugContext(ctx, "user authenticated", slog.String("user_id", claims.UserID))

			next.ServeHTTP(w, r.WithContext(handlers.WithIdentity(ctx, claims.UserID, claims.Email)))
		})
	}
}
