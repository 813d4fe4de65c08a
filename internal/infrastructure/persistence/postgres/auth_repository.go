package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/suanview/orchard/internal/domain"
)

// === Auth Repository Implementation ===
// Implements application/auth.Repository interface (3 methods)

// FindByShortToken retrieves an API key by its short token for validation.
func (s *Store) FindByShortToken(ctx context.Context, shortToken string) (*domain.APIKey, error) {
	key, err := scanAPIKey(s.db.QueryRow(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE short_token = $1`, shortToken))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("failed to get API key: %w", err)
	}
	return key, nil
}

// UpdateLastUsed updates the last used timestamp for an API key.
// Only updates if the new timestamp is later than the current value (or current value is NULL).
// Returns success (nil) if timestamp is not later (idempotent behavior).
// Returns ErrAPIKeyNotFound if the API key doesn't exist.
func (s *Store) UpdateLastUsed(ctx context.Context, keyID string, timestamp time.Time) error {
	id, err := parseID(keyID, domain.ErrAPIKeyNotFound)
	if err != nil {
		return err
	}
	pgID := uuidToPgtype(id)

	tag, err := s.db.Exec(ctx, `UPDATE api_keys
		SET last_used_at = $2
		WHERE id = $1 AND (last_used_at IS NULL OR last_used_at < $2)`,
		pgID, timeToPgtype(timestamp))
	if err != nil {
		return fmt.Errorf("failed to update last used: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Either key doesn't exist OR timestamp wasn't later
		var exists bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM api_keys WHERE id = $1)`, pgID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check key existence: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: %s", domain.ErrAPIKeyNotFound, keyID)
		}
	}

	return nil
}

// Create creates a new API key in storage.
func (s *Store) Create(ctx context.Context, key *domain.APIKey) error {
	id, err := parseID(key.ID, domain.ErrInvalidID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `INSERT INTO api_keys
		(id, key_type, service, version, short_token, long_secret_hash, name, is_active, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuidToPgtype(id), key.KeyType, key.Service, key.Version, key.ShortToken,
		key.LongSecretHash, key.Name, key.IsActive,
		timeToPgtype(key.CreatedAt), timePtrToPgtype(key.ExpiresAt),
	)
	if err != nil {
		if isUniqueViolation(err, "api_keys_short_token_key") {
			return fmt.Errorf("%w: short token collision", domain.ErrValidation)
		}
		return fmt.Errorf("failed to create API key: %w", err)
	}

	return nil
}
