package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for migrations
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Pool defaults applied when DBConfig leaves a value unset.
const (
	DefaultMaxConns        = 10
	DefaultMinConns        = 2
	DefaultConnMaxLifetime = 30 * time.Minute
	DefaultConnMaxIdleTime = 5 * time.Minute
)

// DBConfig holds PostgreSQL database connection configuration.
type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// SkipMigrations disables running embedded migrations on connect.
	SkipMigrations bool
}

// NewStoreWithConfig connects to PostgreSQL, runs migrations and returns a Store.
func NewStoreWithConfig(ctx context.Context, cfg DBConfig) (*Store, error) {
	if !cfg.SkipMigrations {
		if err := RunMigrations(ctx, cfg.DSN); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(valueOr(cfg.MaxOpenConns, DefaultMaxConns))
	poolConfig.MinConns = int32(valueOr(cfg.MaxIdleConns, DefaultMinConns))
	poolConfig.MaxConnLifetime = valueOr(cfg.ConnMaxLifetime, DefaultConnMaxLifetime)
	poolConfig.MaxConnIdleTime = valueOr(cfg.ConnMaxIdleTime, DefaultConnMaxIdleTime)

	// Timestamps are stored and read in UTC. Calendar dates (planted_at,
	// follow_up_date) are DATE columns and carry no zone at all.
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SET TIMEZONE='UTC'")
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewStore(pool), nil
}

// NewPostgresStore creates a PostgreSQL store with default connection pool settings.
func NewPostgresStore(ctx context.Context, connString string) (*Store, error) {
	return NewStoreWithConfig(ctx, DBConfig{DSN: connString})
}

func valueOr[T int | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}

// RunMigrations applies the embedded goose migrations.
// goose needs database/sql, so this opens a short-lived connection through the pgx stdlib driver.
func RunMigrations(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.ErrorContext(ctx, "Failed to close migration database connection", "error", err)
		}
	}()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database for migrations: %w", err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	goose.SetBaseFS(embedMigrations)

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
