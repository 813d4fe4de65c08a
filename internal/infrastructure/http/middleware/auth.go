package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/suanview/orchard/internal/domain"
	"github.com/suanview/orchard/internal/infrastructure/http/response"
)

// KeyValidator validates bearer API keys. Implemented by *auth.Authenticator.
type KeyValidator interface {
	ValidateAPIKey(ctx context.Context, apiKey string) (*domain.APIKey, error)
}

type apiKeyContextKey struct{}

// APIKeyFromContext returns the key that authenticated the request, if any.
func APIKeyFromContext(ctx context.Context) (*domain.APIKey, bool) {
	key, ok := ctx.Value(apiKeyContextKey{}).(*domain.APIKey)
	return key, ok
}

// Auth is HTTP middleware for API key authentication.
type Auth struct {
	validator KeyValidator
}

// NewAuth creates a new auth middleware.
func NewAuth(validator KeyValidator) *Auth {
	return &Auth{
		validator: validator,
	}
}

// Validate is a Chi middleware that validates API keys from Authorization header.
// Expects format: "Authorization: Bearer <api-key>"
func (a *Auth) Validate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			slog.WarnContext(r.Context(), "authentication failed: missing Authorization header",
				"path", r.URL.Path,
				"method", r.Method)
			response.Unauthorized(w, "missing Authorization header")
			return
		}

		apiKey, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			slog.WarnContext(r.Context(), "authentication failed: invalid Authorization header format",
				"path", r.URL.Path,
				"method", r.Method)
			response.Unauthorized(w, "invalid Authorization header format, expected: Bearer <token>")
			return
		}

		validatedKey, err := a.validator.ValidateAPIKey(r.Context(), strings.TrimSpace(apiKey))
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				slog.WarnContext(r.Context(), "authentication failed: invalid or expired API key",
					"path", r.URL.Path,
					"method", r.Method)
				response.Unauthorized(w, "invalid or expired API key")
				return
			}
			response.InternalError(w, r, err)
			return
		}

		slog.DebugContext(r.Context(), "authentication successful",
			"path", r.URL.Path,
			"method", r.Method,
			"key_id", validatedKey.ID,
			"key_name", validatedKey.Name)

		ctx := context.WithValue(r.Context(), apiKeyContextKey{}, validatedKey)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
