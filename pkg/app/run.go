// Package app provides the shared entry point for the gatehouse binary.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/flemzord/gatehouse/internal/agent"
	"github.com/flemzord/gatehouse/internal/audit"
	"github.com/flemzord/gatehouse/internal/config"
	"github.com/flemzord/gatehouse/internal/cron"
	"github.com/flemzord/gatehouse/internal/gateway"
	"github.com/flemzord/gatehouse/internal/httpapi"
	"github.com/flemzord/gatehouse/internal/router"
	"github.com/flemzord/gatehouse/internal/security"
	"github.com/flemzord/gatehouse/internal/tool"
	"github.com/flemzord/gatehouse/internal/tools"
)

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, ResolveConfigPath is called automatically.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string
}

// Run loads configuration, wires everything together, and blocks until a
// shutdown signal is received.
func Run(params RunParams) error {
	cfgPath := params.ConfigPath
	if cfgPath == "" {
		resolved, err := ResolveConfigPath()
		if err != nil {
			return err
		}
		cfgPath = resolved
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	// Redactor first: every logger and audit sink downstream uses it.
	redactor := security.NewRedactor()
	if cfg.Server.BearerToken != "" {
		redactor.AddLiteral(cfg.Server.BearerToken)
	}

	innerHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	})
	logger := slog.New(security.NewRedactingHandler(innerHandler, redactor))
	slog.SetDefault(logger)

	shutdownTelemetry, err := setupTelemetry(context.Background(), cfg.Telemetry, params.Version)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	system, err := buildSystem(cfg, logger, redactor)
	if err != nil {
		return err
	}
	defer system.close(logger)

	server, err := httpapi.New(httpapi.Config{
		Addr:           cfg.Server.Addr,
		BearerToken:    cfg.Server.BearerToken,
		RequestTimeout: cfg.Server.RequestTimeout,
		Gateway:        system.gateway,
		Router:         system.router,
		Audit:          system.recorder,
		AuditStore:     system.store,
		RateLimiter:    system.limiter,
		Registry:       system.metrics,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	scheduler, err := buildScheduler(cfg, system.router, logger)
	if err != nil {
		return err
	}
	if scheduler != nil {
		if err := scheduler.Start(); err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = scheduler.Stop(ctx)
		}()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("shutdown complete")
	return nil
}

// system holds everything below the HTTP layer.
type system struct {
	gateway  *gateway.Gateway
	router   *router.Router
	recorder *audit.Recorder
	store    *audit.SQLiteStore
	limiter  *security.RateLimiter
	metrics  *prometheus.Registry
	logFile  *os.File
}

func (s *system) close(logger *slog.Logger) {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			logger.Warn("closing audit store", "error", err)
		}
	}
	if s.logFile != nil {
		_ = s.logFile.Close()
	}
}

// buildSystem wires the audit chain, sandbox, tools, gateway, agents, and
// router from a validated config.
func buildSystem(cfg *config.Config, logger *slog.Logger, redactor *security.Redactor) (*system, error) {
	sys := &system{}

	recorderCfg := audit.RecorderConfig{Redactor: redactor}
	if cfg.Audit.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Audit.LogPath), 0o700); err != nil {
			return nil, fmt.Errorf("audit log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.Audit.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("audit log: %w", err)
		}
		sys.logFile = f
		recorderCfg.Writer = f
	}
	if cfg.Audit.DBPath != "" {
		store, err := audit.OpenSQLiteStore(cfg.Audit.DBPath)
		if err != nil {
			sys.close(logger)
			return nil, err
		}
		sys.store = store
		recorderCfg.Store = store
	}
	sys.recorder = audit.NewRecorder(recorderCfg)

	sandbox, err := security.NewSandbox(cfg.Sandbox.Root)
	if err != nil {
		sys.close(logger)
		return nil, err
	}

	registry := tool.NewRegistry()
	if err := tools.Register(registry, sandbox, tools.Options{
		MaxReadBytes:  cfg.Sandbox.MaxReadBytes,
		MaxWriteBytes: cfg.Sandbox.MaxWriteBytes,
	}); err != nil {
		sys.close(logger)
		return nil, err
	}

	sys.limiter = security.NewRateLimiter(security.RateLimitConfig{
		InvokesPerMin: cfg.Security.InvokesPerMin,
		AuthPerMin:    cfg.Security.AuthPerMin,
	})

	sys.metrics = prometheus.NewRegistry()
	sys.metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sys.gateway, err = gateway.New(gateway.Config{
		Registry:      registry,
		Audit:         sys.recorder,
		Logger:        logger,
		RateLimiter:   sys.limiter,
		Metrics:       gateway.NewMetrics(sys.metrics),
		MaxInputBytes: cfg.Security.MaxInputBytes,
	})
	if err != nil {
		sys.close(logger)
		return nil, err
	}

	agents, err := BuildAgents(cfg.Agents, sys.gateway, logger)
	if err != nil {
		sys.close(logger)
		return nil, err
	}

	sys.router, err = router.New(router.Config{
		Diagnostic:     agents.Diagnostics,
		FileAnalysis:   agents.FileAnalysis,
		ChangeProposal: agents.ChangeProposal,
		Health:         sys.gateway,
		Logger:         logger,
	})
	if err != nil {
		sys.close(logger)
		return nil, err
	}
	return sys, nil
}

// Agents holds the three stock agents.
type Agents struct {
	Diagnostics    *agent.Agent
	FileAnalysis   *agent.Agent
	ChangeProposal *agent.Agent
}

// Default allow-lists. Config may override each list but not add agents.
var defaultAllowLists = map[string][]string{
	"diagnostics":     {"system-info"},
	"file-analysis":   {"file-read", "file-list"},
	"change-proposal": {"file-write"},
}

// BuildAgents creates the stock agents against a gateway, applying any
// configured allow-list overrides.
func BuildAgents(overrides config.AgentsConfig, gw agent.Invoker, logger *slog.Logger) (Agents, error) {
	build := func(name string, think agent.ThinkFunc, override *config.AgentEntry) (*agent.Agent, error) {
		allowed := defaultAllowLists[name]
		if override != nil && len(override.AllowedTools) > 0 {
			allowed = override.AllowedTools
		}
		return agent.New(agent.Config{
			Name:         name,
			AllowedTools: allowed,
			Gateway:      gw,
			Think:        think,
			Logger:       logger,
		})
	}

	var agents Agents
	var err error
	if agents.Diagnostics, err = build("diagnostics", agent.DiagnosticThink, overrides.Diagnostics); err != nil {
		return Agents{}, err
	}
	if agents.FileAnalysis, err = build("file-analysis", agent.FileAnalysisThink, overrides.FileAnalysis); err != nil {
		return Agents{}, err
	}
	if agents.ChangeProposal, err = build("change-proposal", agent.ChangeProposalThink, overrides.ChangeProposal); err != nil {
		return Agents{}, err
	}
	return agents, nil
}

func buildScheduler(cfg *config.Config, rtr *router.Router, logger *slog.Logger) (*cron.Scheduler, error) {
	if len(cfg.Schedules) == 0 {
		return nil, nil
	}

	scheduler := cron.NewScheduler(logger)
	for _, entry := range cfg.Schedules {
		job := &cron.RoutedTaskJob{
			JobName:      entry.Name,
			ScheduleExpr: entry.Cron,
			Task:         entry.Task,
			Router:       rtr,
			Logger:       logger,
		}
		if err := scheduler.RegisterJob(job); err != nil {
			return nil, err
		}
	}
	return scheduler, nil
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
