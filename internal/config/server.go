package config

import (
	"fmt"
	"time"

	"github.com/suanview/orchard/internal/env"
)

// ServerConfig holds all configuration for the server binary.
type ServerConfig struct {
	Database        DatabaseConfig
	HTTP            HTTPConfig
	Auth            AuthConfig
	Orchard         OrchardConfig
	Digest          DigestConfig
	Blob            BlobConfig
	Observability   ObservabilityConfig
	ShutdownTimeout time.Duration `env:"ORCHARD_SHUTDOWN_TIMEOUT"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host              string        `env:"ORCHARD_HTTP_HOST"`
	Port              string        `env:"ORCHARD_HTTP_PORT"`
	ReadTimeout       time.Duration `env:"ORCHARD_HTTP_READ_TIMEOUT"`
	WriteTimeout      time.Duration `env:"ORCHARD_HTTP_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `env:"ORCHARD_HTTP_IDLE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `env:"ORCHARD_HTTP_READ_HEADER_TIMEOUT"`
	MaxHeaderBytes    int           `env:"ORCHARD_HTTP_MAX_HEADER_BYTES"`
	MaxBodyBytes      int64         `env:"ORCHARD_HTTP_MAX_BODY_BYTES"`

	// TLS configuration for HTTPS
	TLSEnabled  bool   `env:"ORCHARD_TLS_ENABLED"`
	TLSCertFile string `env:"ORCHARD_TLS_CERT_FILE"`
	TLSKeyFile  string `env:"ORCHARD_TLS_KEY_FILE"`
}

// Validate requires both files when TLS is on.
func (c *HTTPConfig) Validate() error {
	if c.TLSEnabled && (c.TLSCertFile == "" || c.TLSKeyFile == "") {
		return fmt.Errorf("ORCHARD_TLS_CERT_FILE and ORCHARD_TLS_KEY_FILE are required when ORCHARD_TLS_ENABLED is true")
	}
	return nil
}

// AuthConfig holds authenticator configuration.
type AuthConfig struct {
	OperationTimeout time.Duration `env:"ORCHARD_AUTH_OPERATION_TIMEOUT"`
	UpdateQueueSize  int           `env:"ORCHARD_AUTH_UPDATE_QUEUE_SIZE"`
}

// LoadServerConfig loads and validates server configuration from environment.
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	return cfg, nil
}
