package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/flemzord/gatehouse/internal/agent"
	"github.com/flemzord/gatehouse/internal/config"
	"github.com/flemzord/gatehouse/internal/mcpserver"
	"github.com/flemzord/gatehouse/internal/security"
)

// RunMCP wires the system and serves it over MCP on stdio. Logs go to
// stderr; stdout belongs to the protocol.
func RunMCP(params RunParams) error {
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

	redactor := security.NewRedactor()
	if cfg.Server.BearerToken != "" {
		redactor.AddLiteral(cfg.Server.BearerToken)
	}
	innerHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	})
	logger := slog.New(security.NewRedactingHandler(innerHandler, redactor))

	sys, err := buildSystem(cfg, logger, redactor)
	if err != nil {
		return err
	}
	defer sys.close(logger)

	// The MCP client acts through one agent with the full tool surface.
	// Dangerous tools remain dry-run only; the gateway enforces that.
	var allTools []string
	for _, def := range sys.gateway.Definitions() {
		allTools = append(allTools, def.Name)
	}
	caller, err := agent.New(agent.Config{
		Name:         "mcp-client",
		AllowedTools: allTools,
		Gateway:      sys.gateway,
		Think:        agent.DiagnosticThink,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	srv, err := mcpserver.New(mcpserver.Config{
		Name:    "gatehouse",
		Version: params.Version,
		Caller:  caller,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}
