// Package config declares the ORCHARD_* environment of each binary.
//
// Loading only parses and validates. Defaults are applied by the layer that
// consumes a value (NewService, NewAuthenticator, ServerConfig.applyDefaults)
// so a zero value always means "use the default".
package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // zone database for distroless images

	"github.com/suanview/orchard/internal/env"
)

// DefaultTimeZone is the orchard's civil time zone when ORCHARD_TIMEZONE is unset.
const DefaultTimeZone = "Asia/Bangkok"

// OrchardConfig holds orchard service configuration.
type OrchardConfig struct {
	DefaultPageSize   int    `env:"ORCHARD_DEFAULT_PAGE_SIZE"`
	MaxPageSize       int    `env:"ORCHARD_MAX_PAGE_SIZE"`
	MaxLabelsPerSheet int    `env:"ORCHARD_MAX_LABELS_PER_SHEET"`
	FollowUpLimit     int    `env:"ORCHARD_FOLLOW_UP_LIMIT"`
	PublicBaseURL     string `env:"ORCHARD_PUBLIC_BASE_URL"`

	// TimeZone is an IANA name. Follow-up dates are classified against "today" in this zone.
	TimeZone string `env:"ORCHARD_TIMEZONE"`

	// HorizonDays bounds the "อีก N วัน" relative label; zero keeps the classifier default.
	HorizonDays int `env:"ORCHARD_FOLLOW_UP_HORIZON_DAYS"`
}

// Validate checks the page sizes and the time zone name.
func (c *OrchardConfig) Validate() error {
	if c.DefaultPageSize < 0 || c.MaxPageSize < 0 {
		return fmt.Errorf("ORCHARD_DEFAULT_PAGE_SIZE and ORCHARD_MAX_PAGE_SIZE must be >= 0")
	}
	if c.MaxPageSize > 0 && c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("ORCHARD_MAX_PAGE_SIZE (%d) must be >= ORCHARD_DEFAULT_PAGE_SIZE (%d)", c.MaxPageSize, c.DefaultPageSize)
	}
	if c.HorizonDays < 0 {
		return fmt.Errorf("ORCHARD_FOLLOW_UP_HORIZON_DAYS must be >= 0")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves TimeZone, falling back to DefaultTimeZone.
func (c *OrchardConfig) Location() (*time.Location, error) {
	name := c.TimeZone
	if name == "" {
		name = DefaultTimeZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid ORCHARD_TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

// ObservabilityConfig holds observability configuration.
type ObservabilityConfig struct {
	OTelEnabled bool   `env:"ORCHARD_OTEL_ENABLED"`
	ServiceName string `env:"OTEL_SERVICE_NAME"`
}

// CLIConfig holds configuration for orchardctl.
type CLIConfig struct {
	Database DatabaseConfig
	Orchard  OrchardConfig
}

// LoadCLIConfig loads and validates orchardctl configuration from environment.
func LoadCLIConfig() (*CLIConfig, error) {
	cfg := &CLIConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load cli config: %w", err)
	}

	return cfg, nil
}
