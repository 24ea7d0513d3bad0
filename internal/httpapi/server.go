// Package httpapi exposes the gateway over HTTP: tool invocation, tool
// discovery, task routing, audit access, health, and metrics.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flemzord/gatehouse/internal/audit"
	"github.com/flemzord/gatehouse/internal/gateway"
	"github.com/flemzord/gatehouse/internal/router"
	"github.com/flemzord/gatehouse/internal/security"
)

// TaskRunner is the router surface the server needs.
type TaskRunner interface {
	Run(ctx context.Context, task string) (router.RunReport, error)
}

// RecentStore serves recent audit entries, newest first.
type RecentStore interface {
	Recent(ctx context.Context, limit int) ([]audit.Entry, error)
}

// Config assembles a server.
type Config struct {
	Addr           string
	BearerToken    string
	RequestTimeout time.Duration

	Gateway     *gateway.Gateway
	Router      TaskRunner
	Audit       *audit.Recorder
	AuditStore  RecentStore
	RateLimiter *security.RateLimiter
	Registry    *prometheus.Registry
	Logger      *slog.Logger
}

// Server is the HTTP front of the gateway.
type Server struct {
	cfg    Config
	logger *slog.Logger
	http   *http.Server
}

// New creates a server. Gateway and router are required.
func New(cfg Config) (*Server, error) {
	if cfg.Gateway == nil {
		return nil, errors.New("httpapi: gateway required")
	}
	if cfg.Router == nil {
		return nil, errors.New("httpapi: router required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{cfg: cfg, logger: logger}
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.buildRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the route tree, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// buildRouter constructs the chi mux with all routes wired.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public — no auth required.
	r.Get("/health", s.handleHealth())
	r.Get("/tools", s.handleListTools())
	r.Get("/tools/{name}", s.handleGetTool())

	if s.cfg.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.cfg.Registry, promhttp.HandlerOpts{}))
	}

	// Invocation and audit access — auth required when a token is set.
	r.Group(func(r chi.Router) {
		if s.cfg.BearerToken != "" {
			r.Use(bearerAuth(s.cfg.BearerToken, s.cfg.RateLimiter, s.logger))
		}
		r.Post("/invoke", s.handleInvoke())
		r.Post("/tasks", s.handleTask())
		r.Get("/audit/recent", s.handleAuditRecent())
		r.Get("/ws/audit", s.handleAuditTail())
	})

	return r
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.cfg.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
