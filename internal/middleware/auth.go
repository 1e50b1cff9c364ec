package middleware

import (
	"context"
	"net/http"

	"github.com/fieldfleet/trip-recorder/internal/auth"
	"github.com/fieldfleet/trip-recorder/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// OperatorContextKey holds the authenticated operator's claims.
	OperatorContextKey contextKey = "operator"
)

// AuthMiddleware provides JWT authentication middleware.
type AuthMiddleware struct {
	authService *auth.Service
}

// NewAuthMiddleware creates a new authentication middleware.
func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Authenticate validates the bearer token and puts the operator's claims in
// the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkipAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		claims, err := m.authService.ValidateToken(authHeader)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), OperatorContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OperatorFromContext returns the authenticated operator's claims, if any.
func OperatorFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(OperatorContextKey).(*models.Claims)
	return claims, ok
}

// shouldSkipAuth lists the endpoints reachable without a token.
func shouldSkipAuth(path string) bool {
	switch path {
	case "/api/auth/login", "/api/health":
		return true
	default:
		return false
	}
}
