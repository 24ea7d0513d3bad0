// Package gateway is the single execution path for tool invocations. It
// validates requests against the registry, derives the execution context
// (including the dry-run invariant for dangerous tools), invokes the
// matching executor, and appends one audit entry per attempt before the
// response is returned to the caller.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flemzord/gatehouse/internal/audit"
	"github.com/flemzord/gatehouse/internal/security"
	"github.com/flemzord/gatehouse/internal/tool"
)

// InvokeRequest is a single tool invocation request.
type InvokeRequest struct {
	// Tool is the registered tool name.
	Tool string `json:"tool"`

	// Inputs is the raw JSON payload validated against the tool's schema.
	// Nil is treated as an empty object.
	Inputs json.RawMessage `json:"inputs,omitempty"`

	// Intent optionally overrides the definition's intent in the audit
	// trail for this one invocation.
	Intent string `json:"intent,omitempty"`

	// DryRun is a caller preference honored only for safe tools.
	// Dangerous tools run dry regardless of this field.
	DryRun *bool `json:"dry_run,omitempty"`
}

// InvokeResponse is the caller-facing outcome of an invocation attempt.
type InvokeResponse struct {
	Tool            string    `json:"tool"`
	Success         bool      `json:"success"`
	Result          any       `json:"result,omitempty"`
	Error           string    `json:"error,omitempty"`
	DryRun          bool      `json:"dry_run"`
	Timestamp       time.Time `json:"timestamp"`
	RequestID       string    `json:"request_id"`
	SimulatedAction string    `json:"simulated_action,omitempty"`
}

// Config configures a Gateway.
type Config struct {
	// Registry is the tool catalogue. Required.
	Registry *tool.Registry

	// Audit receives one entry per invocation attempt. Required.
	Audit *audit.Recorder

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// RateLimiter, if non-nil, bounds invocation throughput.
	RateLimiter *security.RateLimiter

	// Metrics, if non-nil, receives invocation counters.
	Metrics *Metrics

	// MaxInputBytes bounds raw input size; zero means the default limit.
	MaxInputBytes int

	// Now and NewRequestID override the clock and ID source for tests.
	Now          func() time.Time
	NewRequestID func() string
}

// Gateway validates, executes, and audits tool invocations. The registry
// is read-only after startup and every invocation allocates a fresh
// execution context, so a Gateway is safe for concurrent use.
type Gateway struct {
	registry *tool.Registry
	recorder *audit.Recorder
	logger   *slog.Logger
	limiter  *security.RateLimiter
	metrics  *Metrics
	schemas  *schemaCache
	tracer   trace.Tracer

	maxInputBytes int
	now           func() time.Time
	newRequestID  func() string
}

// New creates a Gateway. Registry and Audit are required.
func New(cfg Config) (*Gateway, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("gateway: registry is required")
	}
	if cfg.Audit == nil {
		return nil, fmt.Errorf("gateway: audit recorder is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	newID := cfg.NewRequestID
	if newID == nil {
		newID = uuid.NewString
	}

	return &Gateway{
		registry:      cfg.Registry,
		recorder:      cfg.Audit,
		logger:        logger,
		limiter:       cfg.RateLimiter,
		metrics:       cfg.Metrics,
		schemas:       newSchemaCache(),
		tracer:        otel.Tracer("github.com/flemzord/gatehouse/internal/gateway"),
		maxInputBytes: cfg.MaxInputBytes,
		now:           now,
		newRequestID:  newID,
	}, nil
}

// Healthy reports whether the gateway can serve invocations.
func (g *Gateway) Healthy() bool {
	return g != nil && g.registry != nil && g.registry.Len() > 0
}

// Definitions returns the registered tool definitions, sorted by name.
func (g *Gateway) Definitions() []tool.Definition {
	return g.registry.Definitions()
}

// Definition returns a single tool definition by name.
func (g *Gateway) Definition(name string) (tool.Definition, error) {
	rt, err := g.registry.Get(name)
	if err != nil {
		return tool.Definition{}, err
	}
	return rt.Definition, nil
}

// Invoke runs one tool invocation end to end. The returned error carries
// the failure taxonomy (tool.ErrToolNotFound, ErrInvalidInput,
// ErrExecutionFailed, security.ErrRateLimited); the response mirrors it in
// caller-facing form. Exactly one audit entry is appended per call, before
// Invoke returns.
func (g *Gateway) Invoke(ctx context.Context, req InvokeRequest) (InvokeResponse, error) {
	ctx, span := g.tracer.Start(ctx, "gateway.invoke",
		trace.WithAttributes(attribute.String("tool.name", req.Tool)))
	defer span.End()

	resp := InvokeResponse{
		Tool:      req.Tool,
		Timestamp: g.now(),
		RequestID: g.newRequestID(),
	}
	span.SetAttributes(attribute.String("request.id", resp.RequestID))

	if g.limiter != nil {
		if err := g.limiter.Allow(security.BucketInvoke); err != nil {
			return g.fail(span, resp, audit.Entry{
				Tool: req.Tool,
			}, 0, err)
		}
	}

	rt, err := g.registry.Get(req.Tool)
	if err != nil {
		// No tool was matched, so no execution context exists; the
		// attempt is still recorded.
		return g.fail(span, resp, audit.Entry{Tool: req.Tool}, 0, err)
	}

	intent := rt.Definition.Intent
	if req.Intent != "" {
		intent = req.Intent
	}

	inputs := req.Inputs
	if len(inputs) == 0 {
		inputs = json.RawMessage(`{}`)
	}

	// Duration covers validation through executor return, measured with
	// the injected clock so tests control DurationMs.
	begin := g.now()

	entry := audit.Entry{
		Timestamp: resp.Timestamp,
		RequestID: resp.RequestID,
		Tool:      rt.Definition.Name,
		Intent:    intent,
		Inputs:    inputs,
	}

	if err := g.validate(rt.Definition, inputs); err != nil {
		return g.fail(span, resp, entry, g.now().Sub(begin), err)
	}

	// The dry-run invariant: dangerous tools always run dry, no matter
	// what the request asked for. Safe tools may opt in.
	ec := tool.ExecContext{
		DryRun:    rt.Definition.Safety == tool.SafetyDangerous,
		Timestamp: resp.Timestamp,
		RequestID: resp.RequestID,
	}
	if rt.Definition.Safety == tool.SafetySafe && req.DryRun != nil {
		ec.DryRun = *req.DryRun
	}
	resp.DryRun = ec.DryRun
	entry.DryRun = ec.DryRun
	span.SetAttributes(attribute.Bool("tool.dry_run", ec.DryRun))

	result, execErr := g.execute(ctx, rt.Executor, inputs, ec)
	elapsed := g.now().Sub(begin)

	if execErr == nil && !result.Success {
		execErr = fmt.Errorf("%w: %s", ErrExecutionFailed, result.Error)
	}
	if execErr != nil {
		return g.fail(span, resp, entry, elapsed, execErr)
	}

	entry.Result = audit.OutcomeSuccess
	entry.DurationMs = elapsed.Milliseconds()
	g.append(entry)

	resp.Success = true
	resp.Result = result.Data
	resp.SimulatedAction = result.SimulatedAction
	g.metrics.observe(entry.Tool, string(audit.OutcomeSuccess), elapsed.Seconds())
	span.SetStatus(codes.Ok, "")
	return resp, nil
}

// validate checks size, nesting, and schema conformance of raw inputs.
func (g *Gateway) validate(def tool.Definition, inputs []byte) error {
	if err := security.ValidateInputSize(inputs, g.maxInputBytes); err != nil {
		return &ValidationError{Fields: []FieldError{{Field: "/", Message: err.Error()}}}
	}
	if err := security.ValidateJSONDepth(inputs, 0); err != nil {
		return &ValidationError{Fields: []FieldError{{Field: "/", Message: err.Error()}}}
	}

	sch, err := g.schemas.get(def)
	if err != nil {
		// A schema that fails to compile is a registration defect, not a
		// caller mistake.
		return fmt.Errorf("%w: %w", ErrExecutionFailed, err)
	}
	return validateInputs(sch, inputs)
}

// execute invokes the executor, converting panics into errors so a single
// faulty tool can never take the gateway down.
func (g *Gateway) execute(ctx context.Context, exec tool.Executor, inputs json.RawMessage, ec tool.ExecContext) (result tool.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("executor panicked", "request_id", ec.RequestID, "panic", fmt.Sprint(r))
			result = tool.Result{}
			err = fmt.Errorf("%w: panic: %v", ErrExecutionFailed, r)
		}
	}()

	result, err = exec(ctx, inputs, ec)
	if err != nil && !errors.Is(err, ErrExecutionFailed) {
		err = fmt.Errorf("%w: %w", ErrExecutionFailed, err)
	}
	return result, err
}

// fail records a failed attempt and builds the matching response. The
// audit entry is appended before control returns to the caller.
func (g *Gateway) fail(span trace.Span, resp InvokeResponse, entry audit.Entry, elapsed time.Duration, err error) (InvokeResponse, error) {
	entry.Timestamp = resp.Timestamp
	entry.RequestID = resp.RequestID
	entry.Result = audit.OutcomeError
	entry.DurationMs = elapsed.Milliseconds()
	entry.Error = err.Error()
	g.append(entry)

	resp.Success = false
	resp.Error = err.Error()
	g.metrics.observe(entry.Tool, string(audit.OutcomeError), elapsed.Seconds())
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return resp, err
}

// append writes the audit entry. A failing sink is logged but does not
// turn a completed invocation into a failure; the entry itself has
// already been constructed and dispatched to every reachable sink.
func (g *Gateway) append(entry audit.Entry) {
	if err := g.recorder.Append(entry); err != nil {
		g.logger.Error("audit append failed", "tool", entry.Tool, "request_id", entry.RequestID, "error", err)
	}
}
