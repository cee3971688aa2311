package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ubankhq/ubank/internal/infrastructure/auth"
)

// ContextKey is the type for context keys.
type ContextKey string

// UserIDContextKey is the context key for the authenticated caller's user ID.
const UserIDContextKey ContextKey = "user_id"

const devUserIDHeader = "X-User-ID"

// Auth resolves the caller identity for every request. With a JWT manager
// configured it requires a valid Bearer token; without one it trusts the
// X-User-ID header, which is only acceptable behind a trusted gateway or in
// development.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if jwtManager == nil {
				userID := r.Header.Get(devUserIDHeader)
				if userID == "" {
					unauthorized(w, "missing "+devUserIDHeader+" header")
					return
				}

				next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				unauthorized(w, "invalid authorization header format")
				return
			}

			claims, err := jwtManager.Verify(parts[1])
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), claims.UserID)))
		})
	}
}

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDContextKey, userID)
}

// GetUserID extracts the authenticated caller's user ID from context.
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(string)
	return userID, ok && userID != ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
}
