package auth

import (
	"context"
	"time"

	"github.com/suanview/orchard/internal/domain"
)

// Repository defines storage operations for API keys.
type Repository interface {
	// FindByShortToken retrieves an active API key by its short token.
	// Returns domain.ErrAPIKeyNotFound if no key matches.
	FindByShortToken(ctx context.Context, shortToken string) (*domain.APIKey, error)

	// UpdateLastUsed records when a key was last accepted.
	UpdateLastUsed(ctx context.Context, keyID string, timestamp time.Time) error

	// Create stores a new API key.
	Create(ctx context.Context, key *domain.APIKey) error
}
