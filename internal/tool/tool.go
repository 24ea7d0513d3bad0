// Package tool defines tool definitions, executors, and the registry that
// pairs them. Tools are the primary security boundary of gatehouse: every
// action an agent takes goes through a registered tool whose safety class
// decides whether it may ever produce real side effects.
package tool

import (
	"context"
	"encoding/json"
	"time"
)

// Safety classifies what a tool is allowed to do when executed.
type Safety string

// Safety classes.
const (
	// SafetySafe tools execute for real by default.
	SafetySafe Safety = "safe"

	// SafetyDangerous tools are always executed in dry-run mode. The
	// gateway derives this unconditionally; callers cannot override it.
	SafetyDangerous Safety = "dangerous"
)

// Valid reports whether s is a known safety class.
func (s Safety) Valid() bool {
	return s == SafetySafe || s == SafetyDangerous
}

// Definition describes a tool without containing any execution logic.
// Definitions are created once at startup and never mutated.
type Definition struct {
	// Name uniquely identifies the tool in the registry.
	Name string `json:"name"`

	// Description is a human-readable summary of what the tool does.
	Description string `json:"description"`

	// Intent is the human-readable justification for the tool's existence,
	// recorded in every audit entry.
	Intent string `json:"intent"`

	// InputSchema is a JSON Schema the gateway validates inputs against
	// before the executor ever sees them.
	InputSchema json.RawMessage `json:"input_schema"`

	// Safety is the tool's safety class.
	Safety Safety `json:"safety"`
}

// ExecContext is the per-invocation execution context. It is constructed by
// the gateway immediately before invoking an executor and discarded after
// the response is built.
type ExecContext struct {
	// DryRun is true whenever the matched tool is dangerous, regardless of
	// anything the caller requested.
	DryRun bool

	// Timestamp is when the invocation was accepted.
	Timestamp time.Time

	// RequestID uniquely identifies this invocation.
	RequestID string
}

// Result is the outcome of a single executor invocation.
type Result struct {
	// Success reports whether the executor completed its work.
	Success bool

	// Data is the opaque payload, present iff the execution succeeded and
	// was not a pure simulation.
	Data any

	// Error is the failure message, present iff Success is false.
	Error string

	// SimulatedAction describes what would have happened, populated by
	// dangerous executors running in dry-run mode.
	SimulatedAction string
}

// Executor runs a tool with validated inputs. Executors are pure functions
// over their inputs and context: they have no knowledge of the registry or
// the audit layer.
type Executor func(ctx context.Context, args json.RawMessage, ec ExecContext) (Result, error)
