// Package auth validates the API keys used by the dashboard and orchardctl.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/suanview/orchard/internal/domain"
	"github.com/suanview/orchard/internal/infrastructure/keygen"
)

// Default configuration values.
const (
	DefaultOperationTimeout = 5 * time.Second
	DefaultUpdateQueueSize  = 1000
)

// Config holds configuration for the Authenticator.
type Config struct {
	OperationTimeout time.Duration // Timeout for storage operations, zero means none
	UpdateQueueSize  int           // Buffer size for last_used_at updates

	// Now is the clock used for expiry checks and last_used_at. Defaults to time.Now.
	Now func() time.Time
}

type lastUsedUpdate struct {
	keyID     string
	timestamp time.Time
}

// Authenticator validates API keys and records their use in the background.
type Authenticator struct {
	repo             Repository
	appCtx           context.Context // Application context, cancelled on shutdown
	now              func() time.Time
	lastUsedUpdates  chan lastUsedUpdate
	shutdownChan     chan struct{}
	shutdownOnce     sync.Once
	wg               sync.WaitGroup
	operationTimeout time.Duration
}

// NewAuthenticator creates an authenticator and starts the last_used_at worker.
// ctx should be the application context; it is cancelled on shutdown.
// A negative OperationTimeout and a non-positive UpdateQueueSize get the defaults.
func NewAuthenticator(ctx context.Context, repo Repository, config Config) *Authenticator {
	if config.OperationTimeout < 0 {
		config.OperationTimeout = DefaultOperationTimeout
	}
	if config.UpdateQueueSize <= 0 {
		config.UpdateQueueSize = DefaultUpdateQueueSize
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	a := &Authenticator{
		repo:             repo,
		appCtx:           ctx,
		now:              config.Now,
		lastUsedUpdates:  make(chan lastUsedUpdate, config.UpdateQueueSize),
		shutdownChan:     make(chan struct{}),
		operationTimeout: config.OperationTimeout,
	}

	a.wg.Add(1)
	go a.processLastUsedUpdates()

	return a
}

func (a *Authenticator) withTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if a.operationTimeout == 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, a.operationTimeout)
}

// processLastUsedUpdates drains the update queue until shutdown.
// A single worker bounds the number of concurrent writes regardless of request load.
func (a *Authenticator) processLastUsedUpdates() {
	defer a.wg.Done()

	for {
		select {
		case update := <-a.lastUsedUpdates:
			// cancel is called inline; a defer here would pile up until the loop exits.
			ctx, cancel := a.withTimeout(a.appCtx)
			if err := a.repo.UpdateLastUsed(ctx, update.keyID, update.timestamp); err != nil {
				slog.WarnContext(ctx, "Failed to update API key last_used_at",
					slog.String("key_id", update.keyID),
					slog.String("error", err.Error()))
			}
			cancel()

		case <-a.shutdownChan:
			for {
				select {
				case update := <-a.lastUsedUpdates:
					// appCtx is already cancelled at this point.
					ctx, cancel := a.withTimeout(context.Background())
					_ = a.repo.UpdateLastUsed(ctx, update.keyID, update.timestamp)
					cancel()
				default:
					return
				}
			}
		}
	}
}

// Shutdown stops the worker after it has drained queued updates.
// It respects ctx's deadline and is safe to call more than once.
func (a *Authenticator) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.shutdownOnce.Do(func() {
		close(a.shutdownChan)

		done := make(chan struct{})
		go func() {
			a.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			shutdownErr = fmt.Errorf("shutdown timeout: %w", ctx.Err())
		}
	})
	return shutdownErr
}

// ValidateAPIKey returns the stored key if apiKey is valid, active and not expired.
// Rejected keys are reported as domain.ErrUnauthorized; storage failures are returned wrapped.
func (a *Authenticator) ValidateAPIKey(ctx context.Context, apiKey string) (*domain.APIKey, error) {
	keyParts, err := keygen.ParseAPIKey(apiKey)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	opCtx, cancel := a.withTimeout(ctx)
	defer cancel()

	key, err := a.repo.FindByShortToken(opCtx, keyParts.ShortToken)
	if err != nil {
		if errors.Is(err, domain.ErrAPIKeyNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to look up API key: %w", err)
	}

	providedHash := keygen.HashSecret(keyParts.LongSecret)
	if subtle.ConstantTimeCompare([]byte(key.LongSecretHash), []byte(providedHash)) != 1 {
		return nil, domain.ErrUnauthorized
	}

	if !key.IsActive {
		return nil, domain.ErrUnauthorized
	}

	now := a.now().UTC()
	if key.ExpiresAt != nil && key.ExpiresAt.Before(now) {
		return nil, domain.ErrUnauthorized
	}

	select {
	case a.lastUsedUpdates <- lastUsedUpdate{keyID: key.ID, timestamp: now}:
	default:
		// Queue full; last_used_at is best effort.
		slog.WarnContext(ctx, "Dropped last_used_at update due to full queue",
			slog.String("key_id", key.ID))
	}

	return key, nil
}

// CreateKeyParams describes a new API key.
type CreateKeyParams struct {
	KeyType   string
	Service   string
	Version   string
	Name      string
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// CreateAPIKey stores a new API key and returns the plain key.
// The plain key is never stored; this is the only time it is available.
func CreateAPIKey(ctx context.Context, repo Repository, params CreateKeyParams) (string, error) {
	if params.KeyType == "" {
		params.KeyType = keygen.DefaultKeyType
	}
	if params.Service == "" {
		params.Service = keygen.DefaultService
	}
	if params.Version == "" {
		params.Version = keygen.DefaultVersion
	}

	keyParts, err := keygen.GenerateAPIKey(params.KeyType, params.Service, params.Version)
	if err != nil {
		return "", fmt.Errorf("failed to generate API key: %w", err)
	}

	keyID, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate key ID: %w", err)
	}

	err = repo.Create(ctx, &domain.APIKey{
		ID:             keyID.String(),
		KeyType:        keyParts.KeyType,
		Service:        keyParts.Service,
		Version:        keyParts.Version,
		ShortToken:     keyParts.ShortToken,
		LongSecretHash: keygen.HashSecret(keyParts.LongSecret),
		Name:           params.Name,
		IsActive:       true,
		CreatedAt:      params.CreatedAt.UTC(),
		ExpiresAt:      params.ExpiresAt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create API key: %w", err)
	}

	return keyParts.FullKey, nil
}
