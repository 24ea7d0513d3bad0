package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flemzord/gatehouse/internal/audit"
	"github.com/flemzord/gatehouse/internal/gateway"
	"github.com/flemzord/gatehouse/internal/security"
	"github.com/flemzord/gatehouse/internal/tool"
	"github.com/flemzord/gatehouse/internal/tools"
)

// stack wires the real tools behind a real gateway, the way the
// application does.
type stack struct {
	gw      *gateway.Gateway
	root    string
	entries *[]audit.Entry
}

func newStack(t *testing.T) stack {
	t.Helper()

	root := t.TempDir()
	sb, err := security.NewSandbox(root)
	if err != nil {
		t.Fatalf("NewSandbox: %v", err)
	}

	registry := tool.NewRegistry()
	if err := tools.Register(registry, sb, tools.Options{}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	entries := &[]audit.Entry{}
	recorder := audit.NewRecorder(audit.RecorderConfig{
		OnEntry: func(e audit.Entry) { *entries = append(*entries, e) },
	})

	gw, err := gateway.New(gateway.Config{Registry: registry, Audit: recorder})
	if err != nil {
		t.Fatalf("gateway.New: %v", err)
	}
	return stack{gw: gw, root: root, entries: entries}
}

func TestSystemInfoThroughGateway(t *testing.T) {
	t.Parallel()

	s := newStack(t)
	resp, err := s.gw.Invoke(context.Background(), gateway.InvokeRequest{
		Tool:   "system-info",
		Inputs: json.RawMessage(`{"include":["memory"]}`),
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !resp.Success || resp.DryRun {
		t.Fatalf("unexpected response: %+v", resp)
	}

	report, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}
	raw, err := json.Marshal(report["memory"])
	if err != nil {
		t.Fatalf("marshal memory section: %v", err)
	}
	var mem struct {
		TotalBytes uint64 `json:"totalBytes"`
		UsedBytes  uint64 `json:"usedBytes"`
	}
	if err := json.Unmarshal(raw, &mem); err != nil {
		t.Fatalf("unmarshal memory section: %v", err)
	}
	if mem.TotalBytes < mem.UsedBytes {
		t.Fatalf("memory invariant violated: total %d < used %d", mem.TotalBytes, mem.UsedBytes)
	}
}

func TestFileWriteThroughGateway(t *testing.T) {
	t.Parallel()

	s := newStack(t)
	resp, err := s.gw.Invoke(context.Background(), gateway.InvokeRequest{
		Tool:   "file-write",
		Inputs: json.RawMessage(`{"path":"hello.txt","content":"hello"}`),
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !resp.Success || !resp.DryRun {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.SimulatedAction == "" {
		t.Fatal("simulated action missing")
	}
	if _, err := os.Stat(filepath.Join(s.root, "hello.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("dry-run created a file")
	}
}

func TestFileReadEscapeThroughGateway(t *testing.T) {
	t.Parallel()

	s := newStack(t)
	resp, err := s.gw.Invoke(context.Background(), gateway.InvokeRequest{
		Tool:   "file-read",
		Inputs: json.RawMessage(`{"path":"../etc/passwd"}`),
	})
	if !errors.Is(err, security.ErrPathEscape) {
		t.Fatalf("expected ErrPathEscape, got %v", err)
	}
	if resp.Success {
		t.Fatal("escape reported as success")
	}
	// Neither the response nor the audit trail may carry file content.
	if strings.Contains(resp.Error, "root:") {
		t.Fatalf("response leaks file content: %q", resp.Error)
	}
	if len(*s.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(*s.entries))
	}
	if strings.Contains((*s.entries)[0].Error, "root:") {
		t.Fatalf("audit entry leaks file content: %q", (*s.entries)[0].Error)
	}
}

func TestEveryInvocationAudited(t *testing.T) {
	t.Parallel()

	s := newStack(t)
	calls := []gateway.InvokeRequest{
		{Tool: "system-info", Inputs: json.RawMessage(`{}`)},
		{Tool: "file-list", Inputs: json.RawMessage(`{}`)},
		{Tool: "file-read", Inputs: json.RawMessage(`{"path":"missing.txt"}`)},
		{Tool: "no-such-tool"},
	}
	for _, req := range calls {
		_, _ = s.gw.Invoke(context.Background(), req)
	}
	if len(*s.entries) != len(calls) {
		t.Fatalf("expected %d audit entries, got %d", len(calls), len(*s.entries))
	}
}
