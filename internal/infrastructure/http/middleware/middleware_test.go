package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suanview/orchard/internal/domain"
)

// fakeValidator implements KeyValidator for testing.
type fakeValidator struct {
	valid string
	err   error
}

func (f fakeValidator) ValidateAPIKey(_ context.Context, apiKey string) (*domain.APIKey, error) {
	if f.err != nil {
		return nil, f.err
	}
	if apiKey != f.valid {
		return nil, domain.ErrUnauthorized
	}
	return &domain.APIKey{ID: "key-1", Name: "field tablet"}, nil
}

func TestAuth_Validate(t *testing.T) {
	const goodKey = "sk-orchard-v1-0123456789ab-secret"

	var seen *domain.APIKey
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = APIKeyFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		header     string
		validator  fakeValidator
		wantStatus int
	}{
		{"valid key", "Bearer " + goodKey, fakeValidator{valid: goodKey}, http.StatusOK},
		{"missing header", "", fakeValidator{valid: goodKey}, http.StatusUnauthorized},
		{"wrong scheme", "Basic " + goodKey, fakeValidator{valid: goodKey}, http.StatusUnauthorized},
		{"invalid key", "Bearer sk-orchard-v1-000000000000-x", fakeValidator{valid: goodKey}, http.StatusUnauthorized},
		{"storage failure", "Bearer " + goodKey, fakeValidator{err: errors.New("db down")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/zones", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			NewAuth(tt.validator).Validate(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				require.NotNil(t, seen, "validated key is stored in the request context")
				assert.Equal(t, "key-1", seen.ID)
			} else {
				assert.Nil(t, seen, "handler must not run")
			}
		})
	}
}

func TestAPIKeyFromContext_Missing(t *testing.T) {
	_, ok := APIKeyFromContext(context.Background())
	assert.False(t, ok)
}

func TestMaxBodyBytes(t *testing.T) {
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		_, _ = w.Write(body)
	})
	h := MaxBodyBytes(16)(echo)

	t.Run("within limit is passed through", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`)))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, `{"a":1}`, w.Body.String())
	})

	t.Run("declared length over limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 32))))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "PAYLOAD_TOO_LARGE")
	})

	t.Run("unknown length over limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", io.NopCloser(strings.NewReader(strings.Repeat("x", 32))))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}
