package config

import (
	"fmt"
	"time"

	"github.com/suanview/orchard/internal/env"
)

// DigestConfig holds follow-up digest configuration.
type DigestConfig struct {
	// Enabled runs the digest worker inside the server process.
	Enabled          bool          `env:"ORCHARD_DIGEST_ENABLED"`
	Interval         time.Duration `env:"ORCHARD_DIGEST_INTERVAL"`
	OperationTimeout time.Duration `env:"ORCHARD_DIGEST_OPERATION_TIMEOUT"`
	ZoneID           string        `env:"ORCHARD_DIGEST_ZONE_ID"`
}

// Validate rejects negative durations.
func (c *DigestConfig) Validate() error {
	if c.Interval < 0 || c.OperationTimeout < 0 {
		return fmt.Errorf("ORCHARD_DIGEST_INTERVAL and ORCHARD_DIGEST_OPERATION_TIMEOUT must be >= 0")
	}
	return nil
}

// WorkerConfig holds all configuration for the standalone digest worker binary.
type WorkerConfig struct {
	Database      DatabaseConfig
	Orchard       OrchardConfig
	Digest        DigestConfig
	Blob          BlobConfig
	Observability ObservabilityConfig
}

// LoadWorkerConfig loads and validates worker configuration from environment.
func LoadWorkerConfig() (*WorkerConfig, error) {
	cfg := &WorkerConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load worker config: %w", err)
	}

	return cfg, nil
}
