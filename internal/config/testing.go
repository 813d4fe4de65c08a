package config

import (
	"fmt"

	"github.com/suanview/orchard/internal/env"
)

// TestConfig holds configuration for database integration tests.
type TestConfig struct {
	DSN string `env:"ORCHARD_TEST_DB_DSN,required"`
}

// LoadTestConfig loads test configuration from environment.
// It fails when ORCHARD_TEST_DB_DSN is unset so callers can skip.
func LoadTestConfig() (*TestConfig, error) {
	cfg := &TestConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load test config: %w", err)
	}

	return cfg, nil
}
