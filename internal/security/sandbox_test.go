package security

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestSandbox(t *testing.T) *Sandbox {
	t.Helper()
	sb, err := NewSandbox(t.TempDir())
	if err != nil {
		t.Fatalf("NewSandbox: %v", err)
	}
	return sb
}

func TestSandboxResolve_Escapes(t *testing.T) {
	t.Parallel()

	sb := newTestSandbox(t)

	cases := []struct {
		name string
		path string
	}{
		{"parent traversal", "../etc/passwd"},
		{"deep traversal", "a/b/../../../etc/passwd"},
		{"bare dotdot", ".."},
		{"absolute outside", "/etc/passwd"},
		{"redundant separators", "..//..//etc//passwd"},
		{"trailing slash traversal", "../outside/"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := sb.Resolve(tc.path)
			if !errors.Is(err, ErrPathEscape) {
				t.Fatalf("Resolve(%q): expected ErrPathEscape, got %v", tc.path, err)
			}
		})
	}
}

func TestSandboxResolve_EmptyPath(t *testing.T) {
	t.Parallel()

	sb := newTestSandbox(t)
	if _, err := sb.Resolve("   "); !errors.Is(err, ErrEmptyPath) {
		t.Fatalf("expected ErrEmptyPath, got %v", err)
	}
}

func TestSandboxResolve_Inside(t *testing.T) {
	t.Parallel()

	sb := newTestSandbox(t)

	for _, path := range []string{".", "notes.txt", "nested/dir/file.txt", "a/./b.txt"} {
		resolved, err := sb.Resolve(path)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", path, err)
		}
		if !strings.HasPrefix(resolved, sb.Root()) {
			t.Fatalf("Resolve(%q) = %q, outside root %q", path, resolved, sb.Root())
		}
	}
}

func TestSandboxResolve_SymlinkEscape(t *testing.T) {
	t.Parallel()

	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.txt")
	if err := os.WriteFile(secret, []byte("secret"), 0o600); err != nil {
		t.Fatalf("writing secret: %v", err)
	}

	sb := newTestSandbox(t)
	link := filepath.Join(sb.Root(), "link.txt")
	if err := os.Symlink(secret, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if _, err := sb.Resolve("link.txt"); !errors.Is(err, ErrPathEscape) {
		t.Fatalf("expected ErrPathEscape through symlink, got %v", err)
	}
}

func TestSandboxResolve_SymlinkedDirNewFile(t *testing.T) {
	t.Parallel()

	outside := t.TempDir()
	sb := newTestSandbox(t)
	if err := os.Symlink(outside, filepath.Join(sb.Root(), "mirror")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	// The file does not exist yet, but its parent is a symlink out of the
	// root; the write target must still be rejected.
	if _, err := sb.Resolve("mirror/new.txt"); !errors.Is(err, ErrPathEscape) {
		t.Fatalf("expected ErrPathEscape for new file under symlinked dir, got %v", err)
	}
	if _, err := sb.Resolve("mirror/a/b/new.txt"); !errors.Is(err, ErrPathEscape) {
		t.Fatalf("expected ErrPathEscape for deep new path under symlinked dir, got %v", err)
	}

	// A not-yet-existing path under a real in-root directory still resolves.
	if err := os.MkdirAll(filepath.Join(sb.Root(), "drafts"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	resolved, err := sb.Resolve("drafts/new.txt")
	if err != nil {
		t.Fatalf("Resolve under real dir: %v", err)
	}
	if !strings.HasPrefix(resolved, sb.Root()) {
		t.Fatalf("resolved %q outside root %q", resolved, sb.Root())
	}
}

func TestSandboxReadFile_Budget(t *testing.T) {
	t.Parallel()

	sb := newTestSandbox(t)
	path := filepath.Join(sb.Root(), "big.txt")
	if err := os.WriteFile(path, []byte(strings.Repeat("x", 100)), 0o600); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	if _, err := sb.ReadFile("big.txt", 10); !errors.Is(err, ErrSizeLimit) {
		t.Fatalf("expected ErrSizeLimit, got %v", err)
	}

	data, err := sb.ReadFile("big.txt", 100)
	if err != nil {
		t.Fatalf("ReadFile within budget: %v", err)
	}
	if len(data) != 100 {
		t.Fatalf("expected 100 bytes, got %d", len(data))
	}
}

func TestSandboxReadFile_NotRegular(t *testing.T) {
	t.Parallel()

	sb := newTestSandbox(t)
	if err := os.MkdirAll(filepath.Join(sb.Root(), "dir"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if _, err := sb.ReadFile("dir", 0); err == nil {
		t.Fatal("expected error reading a directory")
	}
}
