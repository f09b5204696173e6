package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dom/postboard/internal/api/respond"
	"github.com/dom/postboard/internal/domain"
	"github.com/google/uuid"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
)

// Authenticator resolves a bearer token to the user it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// Auth rejects requests without a valid bearer token and stores the caller's
// user id in the request context.
func Auth(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respond.Message(w, r, http.StatusUnauthorized, "Authorization header required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respond.Message(w, r, http.StatusUnauthorized, "Invalid authorization header")
				return
			}

			user, err := authenticator.Authenticate(r.Context(), parts[1])
			if err != nil {
				slog.DebugContext(r.Context(), "token rejected", "error", err)
				respond.Error(w, r, "middleware.Auth", err)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}
