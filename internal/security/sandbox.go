// Package security provides the cross-cutting safety primitives of
// gatehouse: filesystem sandboxing, secret redaction for logs and audit
// output, request validation limits, and rate limiting.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sandbox errors.
var (
	// ErrPathEscape is returned when a resolved path does not lie within
	// the sandbox root.
	ErrPathEscape = errors.New("path escapes sandbox root")

	// ErrSizeLimit is returned when a file exceeds the configured byte
	// budget. Oversized files are rejected, never silently truncated.
	ErrSizeLimit = errors.New("file exceeds size limit")

	// ErrEmptyPath is returned when a caller supplies an empty path.
	ErrEmptyPath = errors.New("path must not be empty")
)

// Sandbox confines all tool filesystem access to a single root directory.
// The root is resolved (absolute, symlinks evaluated) at construction so
// containment checks compare against the real directory, not the raw
// configuration string.
type Sandbox struct {
	root string
}

// NewSandbox creates a sandbox rooted at dir. The directory is created if it
// does not exist.
func NewSandbox(dir string) (*Sandbox, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("sandbox: root directory must not be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("sandbox: resolving root %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("sandbox: creating root %s: %w", abs, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("sandbox: resolving root %s: %w", abs, err)
	}
	return &Sandbox{root: resolved}, nil
}

// Root returns the resolved absolute sandbox root.
func (s *Sandbox) Root() string {
	return s.root
}

// Resolve normalizes a caller-supplied path against the sandbox root and
// returns its absolute form. It returns ErrPathEscape for any input whose
// resolved form lies outside the root: ".." traversal, absolute paths
// pointing elsewhere, redundant separators, and symlinks that leave the
// root are all rejected. The containment check runs against the resolved
// root, not the raw configuration string.
func (s *Sandbox) Resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrEmptyPath
	}

	joined := path
	if !filepath.IsAbs(joined) {
		joined = filepath.Join(s.root, joined)
	}
	joined = filepath.Clean(joined)

	// Evaluate symlinks when the target exists. For not-yet-created
	// targets (writes), resolve the deepest existing ancestor and rejoin
	// the remainder, so a symlinked parent directory cannot smuggle the
	// path outside the root.
	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		resolved = resolveExistingAncestor(joined)
	}

	if !s.contains(resolved) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, path)
	}
	return resolved, nil
}

// resolveExistingAncestor walks up from path to the deepest component that
// exists, evaluates its symlinks, and rejoins the non-existing remainder.
func resolveExistingAncestor(path string) string {
	dir := path
	var rest []string
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		rest = append(rest, filepath.Base(dir))
		dir = parent
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			for i := len(rest) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, rest[i])
			}
			return resolved
		}
	}
	return path
}

// contains reports whether target is the root itself or lies below it.
func (s *Sandbox) contains(target string) bool {
	rel, err := filepath.Rel(s.root, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ReadFile resolves path inside the sandbox and reads it, enforcing a
// maximum byte budget. A limit <= 0 means no budget. The budget is checked
// against the file size before any content is read.
func (s *Sandbox) ReadFile(path string, limit int64) ([]byte, error) {
	resolved, err := s.Resolve(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("sandbox: stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("sandbox: not a regular file: %s", path)
	}
	if limit > 0 && info.Size() > limit {
		return nil, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrSizeLimit, path, info.Size(), limit)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("sandbox: reading %s: %w", path, err)
	}
	return data, nil
}
