package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/suanview/orchard/internal/application/auth"
	"github.com/suanview/orchard/internal/application/digest"
	"github.com/suanview/orchard/internal/application/orchard"
	"github.com/suanview/orchard/internal/config"
	"github.com/suanview/orchard/internal/followup"
	httpserver "github.com/suanview/orchard/internal/infrastructure/http"
	"github.com/suanview/orchard/internal/infrastructure/http/handler"
	"github.com/suanview/orchard/internal/infrastructure/observability"
	"github.com/suanview/orchard/internal/infrastructure/persistence/postgres"
	"github.com/suanview/orchard/internal/storage/backend"
)

// defaultShutdownTimeout bounds graceful shutdown when ORCHARD_SHUTDOWN_TIMEOUT is unset.
const defaultShutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		// slog may not be initialized if config fails
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Root context, cancelled on SIGTERM/SIGINT
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
		// Bounded so an unreachable collector cannot hang exit
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	store, err := postgres.NewStoreWithConfig(ctx, postgres.DBConfig{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second,
		SkipMigrations:  cfg.Database.SkipMigrations,
	})
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	slog.InfoContext(ctx, "Storage initialized", "dsn", maskPassword(cfg.Database.DSN))

	loc, err := cfg.Orchard.Location()
	if err != nil {
		_ = store.Close()
		return err
	}
	classifier := followup.New(
		followup.WithLocation(loc),
		followup.WithHorizon(cfg.Orchard.HorizonDays),
	)
	svc := orchard.NewService(store, classifier, orchard.Config{
		DefaultPageSize:   cfg.Orchard.DefaultPageSize,
		MaxPageSize:       cfg.Orchard.MaxPageSize,
		MaxLabelsPerSheet: cfg.Orchard.MaxLabelsPerSheet,
		FollowUpLimit:     cfg.Orchard.FollowUpLimit,
		PublicBaseURL:     cfg.Orchard.PublicBaseURL,
	})

	blobs, closeBlobs, err := backend.Open(ctx, cfg.Blob)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("failed to create blob store: %w", err)
	}
	slog.InfoContext(ctx, "Blob storage initialized", "backend", backend.Name(cfg.Blob))

	api, err := handler.NewOpenAPIRouter(svc, digest.NewLabelExporter(blobs, nil))
	if err != nil {
		newCleanup(ctx, nil, store, closeBlobs)()
		return fmt.Errorf("failed to create API router: %w", err)
	}

	authenticator := auth.NewAuthenticator(ctx, store, auth.Config{
		OperationTimeout: cfg.Auth.OperationTimeout,
		UpdateQueueSize:  cfg.Auth.UpdateQueueSize,
	})

	server := httpserver.NewAPIServer(api, authenticator, store, httpserver.ServerConfig{
		Host:              cfg.HTTP.Host,
		Port:              cfg.HTTP.Port,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MaxBodyBytes:      cfg.HTTP.MaxBodyBytes,
	})

	slog.InfoContext(ctx, "Starting orchard service", "timezone", loc.String())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if cfg.HTTP.TLSEnabled {
			err = server.StartTLS(cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile)
		} else {
			err = server.Start()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve HTTP: %w", err)
		}
		return nil
	})

	if cfg.Digest.Enabled {
		worker := digest.New(svc, blobs,
			digest.WithInterval(cfg.Digest.Interval),
			digest.WithOperationTimeout(cfg.Digest.OperationTimeout),
			digest.WithZone(cfg.Digest.ZoneID),
		)
		g.Go(func() error {
			return worker.Start(gctx)
		})
	}

	// Stops the HTTP server once a signal arrives or another member fails
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down")

		shutdownCtx, cancel := newShutdownContext(cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.WarnContext(shutdownCtx, "HTTP server shutdown timed out", "error", err)
		}
		return nil
	})

	err = g.Wait()

	shutdownCtx, cancelShutdown := newShutdownContext(cfg.ShutdownTimeout)
	defer cancelShutdown()
	newCleanup(shutdownCtx, authenticator, store, closeBlobs)()

	return err
}

// newShutdownContext creates a fresh context with timeout for graceful shutdown operations.
// Uses Background() since the main context is already cancelled at shutdown time,
// but cleanup still needs a timeout window.
func newShutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}

// maskPassword masks the password in a connection string for logging.
func maskPassword(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil {
		// Fall back to full redaction when parsing fails
		return "[REDACTED]"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "xxxxxx")
		}
	}
	return u.String()
}
