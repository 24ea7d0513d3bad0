package tool

import "errors"

var (
	// ErrToolNotFound is returned when a tool is not found in the registry.
	ErrToolNotFound = errors.New("tool not found")

	// ErrDuplicateTool is returned when registering a tool under a name
	// that already exists in the registry.
	ErrDuplicateTool = errors.New("tool already registered")

	// ErrEmptyToolName is returned when a definition has an empty name.
	ErrEmptyToolName = errors.New("tool name must not be empty")

	// ErrInvalidSafety is returned when a definition carries an unknown
	// safety class.
	ErrInvalidSafety = errors.New("tool safety class must be safe or dangerous")

	// ErrNilExecutor is returned when a definition is registered without
	// an executor.
	ErrNilExecutor = errors.New("tool executor must not be nil")
)
