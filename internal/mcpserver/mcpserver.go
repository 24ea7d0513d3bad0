// Package mcpserver exposes an agent's tool surface over the Model
// Context Protocol on stdio, so external MCP clients go through the same
// permission, validation, and audit path as everything else.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/gatehouse/internal/gateway"
	"github.com/flemzord/gatehouse/internal/tool"
)

// Caller is the agent surface the MCP server needs: permission-checked
// invocation plus the definitions visible to that agent.
type Caller interface {
	Invoke(ctx context.Context, toolName string, inputs json.RawMessage, intent string) (gateway.InvokeResponse, error)
	VisibleDefinitions() []tool.Definition
}

// Config assembles an MCP server.
type Config struct {
	Name    string
	Version string
	Caller  Caller
	Logger  *slog.Logger
}

// Server bridges MCP tool calls into the gateway.
type Server struct {
	mcp    *server.MCPServer
	logger *slog.Logger
}

// New creates the server and registers every tool the caller may use.
func New(cfg Config) (*Server, error) {
	if cfg.Caller == nil {
		return nil, errors.New("mcpserver: caller required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Name == "" {
		cfg.Name = "gatehouse"
	}

	srv := server.NewMCPServer(cfg.Name, cfg.Version,
		server.WithToolCapabilities(false),
	)

	for _, def := range cfg.Caller.VisibleDefinitions() {
		def := def
		mcpTool := mcp.NewToolWithRawSchema(def.Name, describeTool(def), def.InputSchema)
		srv.AddTool(mcpTool, handler(cfg.Caller, def, logger))
	}

	return &Server{mcp: srv, logger: logger}, nil
}

// describeTool folds the safety class into the description so MCP clients
// see that dangerous tools only ever simulate.
func describeTool(def tool.Definition) string {
	if def.Safety == tool.SafetyDangerous {
		return def.Description + " Always runs as a simulation; no changes are made."
	}
	return def.Description
}

func handler(caller Caller, def tool.Definition, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		inputs, err := json.Marshal(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		resp, err := caller.Invoke(ctx, def.Name, inputs, "mcp client request")
		if err != nil {
			logger.Warn("mcp tool call failed", "tool", def.Name, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		rendered, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("render response: %v", err)), nil
		}
		return mcp.NewToolResultText(string(rendered)), nil
	}
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("mcp server on stdio")
	return server.ServeStdio(s.mcp)
}
