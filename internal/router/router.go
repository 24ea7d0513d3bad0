package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/flemzord/gatehouse/internal/agent"
)

// ErrGatewayUnavailable means the gateway failed its liveness check. No
// classification or agent work happens in that case.
var ErrGatewayUnavailable = errors.New("gateway unavailable")

// ErrNoAgent means no agent is registered for a required task type.
var ErrNoAgent = errors.New("no agent for task type")

// Runner is the agent surface the router needs.
type Runner interface {
	Name() string
	Run(ctx context.Context, task, taskContext string) (agent.Result, error)
}

// Health reports whether the gateway can serve invocations.
type Health interface {
	Healthy() bool
}

// RunReport is the outcome of routing one task.
type RunReport struct {
	Task     string         `json:"task"`
	Type     TaskType       `json:"type"`
	Results  []agent.Result `json:"results"`
	Combined string         `json:"combined"`
	Duration time.Duration  `json:"duration"`
}

// Router dispatches classified tasks to agents.
type Router struct {
	agents map[TaskType]Runner
	health Health
	logger *slog.Logger
}

// Config assembles a router.
type Config struct {
	Diagnostic     Runner
	FileAnalysis   Runner
	ChangeProposal Runner
	Health         Health
	Logger         *slog.Logger
}

// New creates a router. The health check and all three agents are required
// so every task type, composite included, is routable.
func New(cfg Config) (*Router, error) {
	if cfg.Health == nil {
		return nil, errors.New("health check required")
	}
	agents := map[TaskType]Runner{
		TaskDiagnostic:     cfg.Diagnostic,
		TaskFileAnalysis:   cfg.FileAnalysis,
		TaskChangeProposal: cfg.ChangeProposal,
	}
	for taskType, runner := range agents {
		if runner == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoAgent, taskType)
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{agents: agents, health: cfg.Health, logger: logger}, nil
}

// Run classifies the task and executes the matching agents in order. Any
// step failure aborts the run with no partial results.
func (r *Router) Run(ctx context.Context, task string) (RunReport, error) {
	start := time.Now()
	report := RunReport{Task: task}

	if !r.health.Healthy() {
		r.logger.Warn("routing refused", "reason", "gateway unavailable")
		return report, ErrGatewayUnavailable
	}

	report.Type = Classify(task)
	r.logger.Info("task classified", "type", report.Type)

	var results []agent.Result
	var contextParts []string
	for _, step := range steps(task) {
		runner := r.agents[step]

		taskContext := ""
		if len(contextParts) > 0 {
			taskContext = "Context from earlier steps:\n" + strings.Join(contextParts, "\n\n")
		}

		result, err := runner.Run(ctx, task, taskContext)
		if err != nil {
			r.logger.Error("step failed, aborting run", "step", step, "agent", runner.Name(), "error", err)
			report.Duration = time.Since(start)
			return report, fmt.Errorf("step %s: %w", step, err)
		}
		results = append(results, result)
		contextParts = append(contextParts, result.Output)
	}

	report.Results = results
	report.Combined = combine(results)
	report.Duration = time.Since(start)
	return report, nil
}

// combine renders a single result verbatim and labels multiple results
// with per-agent sections.
func combine(results []agent.Result) string {
	if len(results) == 1 {
		return results[0].Output
	}
	var b strings.Builder
	for i, res := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n", res.Agent, res.Output)
	}
	return b.String()
}
