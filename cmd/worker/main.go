// Command worker runs the follow-up digest writer on its own, for deployments
// that keep the API server stateless.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/suanview/orchard/internal/application/digest"
	"github.com/suanview/orchard/internal/application/orchard"
	"github.com/suanview/orchard/internal/config"
	"github.com/suanview/orchard/internal/followup"
	"github.com/suanview/orchard/internal/infrastructure/observability"
	"github.com/suanview/orchard/internal/infrastructure/persistence/postgres"
	"github.com/suanview/orchard/internal/storage/backend"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	providers, err := observability.Init(ctx, observability.Config{
		Enabled:     cfg.Observability.OTelEnabled,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("failed to init observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	// The server owns migrations; the worker only reads.
	store, err := postgres.NewStoreWithConfig(ctx, postgres.DBConfig{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second,
		SkipMigrations:  true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("Failed to close store", "error", err)
		}
	}()

	loc, err := cfg.Orchard.Location()
	if err != nil {
		return err
	}
	svc := orchard.NewService(store,
		followup.New(followup.WithLocation(loc), followup.WithHorizon(cfg.Orchard.HorizonDays)),
		orchard.Config{
			FollowUpLimit: cfg.Orchard.FollowUpLimit,
			PublicBaseURL: cfg.Orchard.PublicBaseURL,
		})

	blobs, closeBlobs, err := backend.Open(ctx, cfg.Blob)
	if err != nil {
		return fmt.Errorf("failed to create blob store: %w", err)
	}
	defer func() {
		if err := closeBlobs.Close(); err != nil {
			slog.Error("Failed to close blob store", "error", err)
		}
	}()

	w := digest.New(svc, blobs,
		digest.WithInterval(cfg.Digest.Interval),
		digest.WithOperationTimeout(cfg.Digest.OperationTimeout),
		digest.WithZone(cfg.Digest.ZoneID),
	)

	slog.InfoContext(ctx, "Starting digest worker", "backend", backend.Name(cfg.Blob), "timezone", loc.String())
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("digest worker: %w", err)
	}
	slog.Info("Worker shut down gracefully")
	return nil
}
