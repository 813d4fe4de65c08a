package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	mw "github.com/suanview/orchard/internal/infrastructure/http/middleware"
	"github.com/suanview/orchard/internal/infrastructure/http/response"
)

// Default configuration values for the HTTP server.
const (
	DefaultHost              = ""     // Empty means all interfaces (0.0.0.0)
	DefaultPort              = "8080"
	DefaultHealthTimeout     = 2 * time.Second
	DefaultReadTimeout       = 15 * time.Second
	DefaultWriteTimeout      = 15 * time.Second
	DefaultIdleTimeout       = 60 * time.Second
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultMaxHeaderBytes    = 1 << 20 // 1MB
	DefaultMaxBodyBytes      = 1 << 20 // 1MB
)

// ServerConfig holds configuration for the HTTP server and router.
type ServerConfig struct {
	Host              string
	Port              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	MaxHeaderBytes    int
	MaxBodyBytes      int64
}

// applyDefaults replaces zero or negative fields with the package defaults.
func (cfg *ServerConfig) applyDefaults() {
	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}
	cfg.ReadTimeout = orDefault(cfg.ReadTimeout, DefaultReadTimeout)
	cfg.WriteTimeout = orDefault(cfg.WriteTimeout, DefaultWriteTimeout)
	cfg.IdleTimeout = orDefault(cfg.IdleTimeout, DefaultIdleTimeout)
	cfg.ReadHeaderTimeout = orDefault(cfg.ReadHeaderTimeout, DefaultReadHeaderTimeout)
	cfg.MaxHeaderBytes = orDefault(cfg.MaxHeaderBytes, DefaultMaxHeaderBytes)
	cfg.MaxBodyBytes = orDefault(cfg.MaxBodyBytes, DefaultMaxBodyBytes)
}

func orDefault[T int | int64 | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}

// HealthChecker reports whether a backing dependency is reachable.
// Implemented by *postgres.Store.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// APIServer serves the orchard API and the health endpoint.
type APIServer struct {
	server *http.Server
}

// NewAPIServer builds the router and the net/http server around it.
// apiHandler is mounted under /api behind API key authentication; /health is public
// and pings health, which may be nil to always report ok.
// Zero config values get the package defaults.
func NewAPIServer(apiHandler http.Handler, validator mw.KeyValidator, health HealthChecker, cfg ServerConfig) *APIServer {
	cfg.applyDefaults()

	router := newRouter(apiHandler, validator, health, cfg)
	return &APIServer{
		server: newHTTPServer(otelhttp.NewHandler(router, "orchard-api"), cfg),
	}
}

func newRouter(apiHandler http.Handler, validator mw.KeyValidator, health HealthChecker, cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLog(nil))
	r.Use(middleware.Recoverer)
	r.Use(mw.MaxBodyBytes(cfg.MaxBodyBytes))

	r.Get("/health", healthHandler(health))

	r.Route("/api", func(r chi.Router) {
		r.Use(mw.NewAuth(validator).Validate)
		r.Mount("/", apiHandler)
	})

	return r
}

func healthHandler(health HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), DefaultHealthTimeout)
			defer cancel()
			if err := health.Ping(ctx); err != nil {
				slog.WarnContext(ctx, "Health check failed", "error", err)
				response.Error(w, "UNAVAILABLE", "database unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		response.OK(w, map[string]string{"status": "ok"})
	}
}

func newHTTPServer(handler http.Handler, cfg ServerConfig) *http.Server {
	return &http.Server{
		Addr:              cfg.Host + ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}

// Start starts the HTTP server.
func (s *APIServer) Start() error {
	slog.Info("Starting HTTP server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// StartTLS starts the HTTP server with the given certificate and key files.
func (s *APIServer) StartTLS(certFile, keyFile string) error {
	slog.Info("Starting HTTPS server", "addr", s.server.Addr)
	return s.server.ListenAndServeTLS(certFile, keyFile)
}

// Shutdown gracefully shuts down the HTTP server.
// The provided context controls the timeout for outstanding requests.
func (s *APIServer) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Handler returns the underlying HTTP handler (router) for testing purposes.
func (s *APIServer) Handler() http.Handler {
	return s.server.Handler
}
