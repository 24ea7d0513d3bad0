// Package agent wraps the gateway with per-caller permission boundaries.
// An agent may only invoke tools on its allow-list; anything else is
// rejected before the request reaches the gateway.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/flemzord/gatehouse/internal/gateway"
	"github.com/flemzord/gatehouse/internal/tool"
)

// ErrPermissionDenied means the agent asked for a tool outside its
// allow-list. The gateway is never consulted in that case.
var ErrPermissionDenied = errors.New("permission denied")

// ErrNoTask means Run was called with an empty task description.
var ErrNoTask = errors.New("empty task")

// ErrEmptyAllowList means an agent was configured without any tools. An
// agent that can never invoke anything is a misconfiguration, not a
// useful caller.
var ErrEmptyAllowList = errors.New("empty allow-list")

// Invoker is the subset of the gateway an agent needs.
type Invoker interface {
	Invoke(ctx context.Context, req gateway.InvokeRequest) (gateway.InvokeResponse, error)
	Definitions() []tool.Definition
}

// ThinkFunc turns a task into tool calls and a textual conclusion. It is
// the only place agent behavior differs; everything around it (permission
// checks, call accounting) is shared.
type ThinkFunc func(ctx context.Context, task string, taskContext string, caller *Caller) (string, error)

// Agent is a named caller bound to an allow-list of tools.
type Agent struct {
	name    string
	allowed map[string]struct{}
	gw      Invoker
	think   ThinkFunc
	logger  *slog.Logger
}

// Config assembles an agent.
type Config struct {
	Name         string
	AllowedTools []string
	Gateway      Invoker
	Think        ThinkFunc
	Logger       *slog.Logger
}

// New creates an agent. Name, gateway, think function, and a non-empty
// allow-list are required.
func New(cfg Config) (*Agent, error) {
	if cfg.Name == "" {
		return nil, errors.New("agent name required")
	}
	if cfg.Gateway == nil {
		return nil, errors.New("gateway required")
	}
	if cfg.Think == nil {
		return nil, errors.New("think function required")
	}
	if len(cfg.AllowedTools) == 0 {
		return nil, fmt.Errorf("agent %s: %w", cfg.Name, ErrEmptyAllowList)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedTools))
	for _, name := range cfg.AllowedTools {
		allowed[name] = struct{}{}
	}
	return &Agent{
		name:    cfg.Name,
		allowed: allowed,
		gw:      cfg.Gateway,
		think:   cfg.Think,
		logger:  logger.With("agent", cfg.Name),
	}, nil
}

// Name returns the agent's name.
func (a *Agent) Name() string {
	return a.name
}

// CanUse reports whether the tool is on the agent's allow-list.
func (a *Agent) CanUse(toolName string) bool {
	_, ok := a.allowed[toolName]
	return ok
}

// AllowedTools returns the allow-list, sorted.
func (a *Agent) AllowedTools() []string {
	names := make([]string, 0, len(a.allowed))
	for name := range a.allowed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VisibleDefinitions returns the gateway definitions the agent may use.
func (a *Agent) VisibleDefinitions() []tool.Definition {
	var defs []tool.Definition
	for _, def := range a.gw.Definitions() {
		if a.CanUse(def.Name) {
			defs = append(defs, def)
		}
	}
	return defs
}

// Invoke calls a tool through the gateway, enforcing the allow-list first.
// The gateway is never reached for a denied tool.
func (a *Agent) Invoke(ctx context.Context, toolName string, inputs json.RawMessage, intent string) (gateway.InvokeResponse, error) {
	if !a.CanUse(toolName) {
		a.logger.Warn("tool outside allow-list", "tool", toolName)
		return gateway.InvokeResponse{}, fmt.Errorf("%w: agent %s may not use %s", ErrPermissionDenied, a.name, toolName)
	}
	return a.gw.Invoke(ctx, gateway.InvokeRequest{
		Tool:   toolName,
		Inputs: inputs,
		Intent: intent,
	})
}

// ToolCall records one gateway invocation made during a run.
type ToolCall struct {
	Tool      string        `json:"tool"`
	Success   bool          `json:"success"`
	DryRun    bool          `json:"dryRun"`
	RequestID string        `json:"requestId"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// Result is the outcome of a full agent run.
type Result struct {
	Agent    string        `json:"agent"`
	Output   string        `json:"output"`
	Calls    []ToolCall    `json:"calls"`
	Duration time.Duration `json:"duration"`
}

// Caller is handed to the think function. Every invocation it makes goes
// through the agent's permission check and is recorded.
type Caller struct {
	agent *Agent
	calls []ToolCall
}

// Invoke calls a tool through the agent's permission check and records
// the call.
func (c *Caller) Invoke(ctx context.Context, toolName string, inputs json.RawMessage, intent string) (gateway.InvokeResponse, error) {
	start := time.Now()
	resp, err := c.agent.Invoke(ctx, toolName, inputs, intent)
	if errors.Is(err, ErrPermissionDenied) {
		return resp, err
	}
	call := ToolCall{
		Tool:      toolName,
		Success:   resp.Success,
		DryRun:    resp.DryRun,
		RequestID: resp.RequestID,
		Duration:  time.Since(start),
	}
	if err != nil {
		call.Error = err.Error()
	}
	c.calls = append(c.calls, call)
	return resp, err
}

// Run executes the task end to end. taskContext carries accumulated output
// from earlier pipeline steps and may be empty.
func (a *Agent) Run(ctx context.Context, task, taskContext string) (Result, error) {
	if task == "" {
		return Result{Agent: a.name}, ErrNoTask
	}

	start := time.Now()
	caller := &Caller{agent: a}
	a.logger.Info("agent run started", "task", task)

	output, err := a.think(ctx, task, taskContext, caller)
	result := Result{
		Agent:    a.name,
		Output:   output,
		Calls:    caller.calls,
		Duration: time.Since(start),
	}
	if err != nil {
		a.logger.Error("agent run failed", "error", err)
		return result, fmt.Errorf("agent %s: %w", a.name, err)
	}
	a.logger.Info("agent run finished", "calls", len(caller.calls), "duration", result.Duration)
	return result, nil
}
