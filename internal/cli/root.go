// Package cli implements orchardctl, the operator command line for the orchard backend.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/suanview/orchard/internal/application/orchard"
	"github.com/suanview/orchard/internal/config"
	"github.com/suanview/orchard/internal/followup"
	"github.com/suanview/orchard/internal/infrastructure/persistence/postgres"
)

// New returns the orchardctl root command.
func New() *cobra.Command {
	return newRoot(time.Now, connect)
}

// connector opens the database for commands that need it.
type connector func(ctx context.Context, cfg *config.CLIConfig) (*postgres.Store, error)

// app carries what every subcommand shares.
type app struct {
	now     func() time.Time
	connect connector
}

func newRoot(now func() time.Time, connect connector) *cobra.Command {
	a := &app{now: now, connect: connect}

	cmd := &cobra.Command{
		Use:           "orchardctl",
		Short:         "Operate the orchard backend: API keys, follow-ups, seeding and data migrations.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		a.newAPIKeyCommand(),
		a.newFollowUpsCommand(),
		a.newSeedCommand(),
		a.newFormulationCommand(),
	)
	return cmd
}

func connect(ctx context.Context, cfg *config.CLIConfig) (*postgres.Store, error) {
	store, err := postgres.NewStoreWithConfig(ctx, postgres.DBConfig{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second,
		SkipMigrations:  cfg.Database.SkipMigrations,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return store, nil
}

// session is an open database plus the service built on it.
type session struct {
	cfg     *config.CLIConfig
	loc     *time.Location
	store   *postgres.Store
	service *orchard.Service
}

func (s *session) Close() {
	_ = s.store.Close()
}

// loadConfig reads the environment and resolves the orchard time zone.
func loadConfig() (*config.CLIConfig, *time.Location, error) {
	cfg, err := config.LoadCLIConfig()
	if err != nil {
		return nil, nil, err
	}
	loc, err := cfg.Orchard.Location()
	if err != nil {
		return nil, nil, err
	}
	return cfg, loc, nil
}

func (a *app) open(ctx context.Context, cfg *config.CLIConfig, loc *time.Location) (*session, error) {
	store, err := a.connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	classifier := followup.New(
		followup.WithClock(a.now),
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

	return &session{cfg: cfg, loc: loc, store: store, service: svc}, nil
}
