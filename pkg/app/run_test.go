package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/flemzord/gatehouse/internal/config"
	"github.com/flemzord/gatehouse/internal/gateway"
	"github.com/flemzord/gatehouse/internal/tool"
)

type fakeInvoker struct{}

func (fakeInvoker) Invoke(context.Context, gateway.InvokeRequest) (gateway.InvokeResponse, error) {
	return gateway.InvokeResponse{}, nil
}

func (fakeInvoker) Definitions() []tool.Definition { return nil }

func TestBuildAgents_Defaults(t *testing.T) {
	t.Parallel()

	agents, err := BuildAgents(config.AgentsConfig{}, fakeInvoker{}, slog.Default())
	if err != nil {
		t.Fatalf("BuildAgents: %v", err)
	}

	if !agents.Diagnostics.CanUse("system-info") || agents.Diagnostics.CanUse("file-write") {
		t.Fatal("diagnostics allow-list wrong")
	}
	if !agents.FileAnalysis.CanUse("file-read") || !agents.FileAnalysis.CanUse("file-list") {
		t.Fatal("file-analysis allow-list wrong")
	}
	if agents.FileAnalysis.CanUse("file-write") {
		t.Fatal("file-analysis may not write")
	}
	if !agents.ChangeProposal.CanUse("file-write") || agents.ChangeProposal.CanUse("file-read") {
		t.Fatal("change-proposal allow-list wrong")
	}
}

func TestBuildAgents_Override(t *testing.T) {
	t.Parallel()

	agents, err := BuildAgents(config.AgentsConfig{
		Diagnostics: &config.AgentEntry{AllowedTools: []string{"system-info", "file-read"}},
	}, fakeInvoker{}, slog.Default())
	if err != nil {
		t.Fatalf("BuildAgents: %v", err)
	}
	if !agents.Diagnostics.CanUse("file-read") {
		t.Fatal("override not applied")
	}
}

func TestResolveConfigPath(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	if _, err := ResolveConfigPath(); err == nil {
		t.Fatal("expected error with no config anywhere")
	}

	path := filepath.Join(xdg, "gatehouse", "gatehouse.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("version: \"1\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := ResolveConfigPath()
	if err != nil {
		t.Fatalf("ResolveConfigPath: %v", err)
	}
	if got != path {
		t.Fatalf("expected %q, got %q", path, got)
	}
}

func TestLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"unknown": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := logLevel(in); got != want {
			t.Errorf("logLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
