package tool

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Registered pairs a Definition with its Executor. The registry exclusively
// owns these pairings; only the gateway may invoke an executor.
type Registered struct {
	Definition Definition
	Executor   Executor
}

// Registry holds the tool catalogue. It is instance-based (not global) so
// tests can build isolated registries. The catalogue is populated once at
// startup and treated as read-only thereafter; there is no unregistration.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Registered
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Registered),
	}
}

// Register pairs a definition with an executor. It returns ErrEmptyToolName,
// ErrInvalidSafety, or ErrNilExecutor for malformed registrations, and
// ErrDuplicateTool if the name is already taken. A duplicate registration is
// a fatal configuration error for the caller.
func (r *Registry) Register(def Definition, exec Executor) error {
	def.Name = strings.TrimSpace(def.Name)
	if def.Name == "" {
		return ErrEmptyToolName
	}
	if !def.Safety.Valid() {
		return fmt.Errorf("%w: %s has %q", ErrInvalidSafety, def.Name, def.Safety)
	}
	if exec == nil {
		return fmt.Errorf("%w: %s", ErrNilExecutor, def.Name)
	}
	if len(def.InputSchema) == 0 {
		def.InputSchema = json.RawMessage(`{"type":"object"}`)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, def.Name)
	}

	r.tools[def.Name] = Registered{Definition: def, Executor: exec}
	return nil
}

// Get returns the registered tool with the given name, or ErrToolNotFound.
func (r *Registry) Get(name string) (Registered, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.tools[strings.TrimSpace(name)]
	if !ok {
		return Registered{}, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return rt, nil
}

// Definitions returns all registered definitions sorted by name.
// Executors are never exposed through this listing.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.tools))
	for _, rt := range r.tools {
		defs = append(defs, rt.Definition)
	}
	slices.SortFunc(defs, func(a, b Definition) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return defs
}

// Names returns all registered tool names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
