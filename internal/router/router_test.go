package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/flemzord/gatehouse/internal/agent"
)

type fakeRunner struct {
	name   string
	output string
	err    error
	runs   []string // taskContext per run
}

func (f *fakeRunner) Name() string { return f.name }

func (f *fakeRunner) Run(_ context.Context, task, taskContext string) (agent.Result, error) {
	f.runs = append(f.runs, taskContext)
	if f.err != nil {
		return agent.Result{Agent: f.name}, f.err
	}
	return agent.Result{Agent: f.name, Output: f.output}, nil
}

type fakeHealth bool

func (h fakeHealth) Healthy() bool { return bool(h) }

type routerFixture struct {
	router *Router
	diag   *fakeRunner
	files  *fakeRunner
	change *fakeRunner
}

func newRouter(t *testing.T, healthy bool) routerFixture {
	t.Helper()
	f := routerFixture{
		diag:   &fakeRunner{name: "diagnostics", output: "diag output"},
		files:  &fakeRunner{name: "file-analysis", output: "files output"},
		change: &fakeRunner{name: "change-proposal", output: "change output"},
	}
	r, err := New(Config{
		Diagnostic:     f.diag,
		FileAnalysis:   f.files,
		ChangeProposal: f.change,
		Health:         fakeHealth(healthy),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.router = r
	return f
}

func TestNew_RequiresAllAgents(t *testing.T) {
	t.Parallel()

	_, err := New(Config{
		Diagnostic:   &fakeRunner{name: "d"},
		FileAnalysis: &fakeRunner{name: "f"},
		Health:       fakeHealth(true),
	})
	if !errors.Is(err, ErrNoAgent) {
		t.Fatalf("expected ErrNoAgent, got %v", err)
	}
}

func TestRun_GatewayUnavailable(t *testing.T) {
	t.Parallel()

	f := newRouter(t, false)
	report, err := f.router.Run(context.Background(), "check memory")
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}
	if len(report.Results) != 0 {
		t.Fatalf("results returned despite unavailable gateway: %+v", report.Results)
	}
	if report.Type != "" {
		t.Fatalf("task classified despite unavailable gateway: %s", report.Type)
	}
	if len(f.diag.runs)+len(f.files.runs)+len(f.change.runs) != 0 {
		t.Fatal("agents ran despite unavailable gateway")
	}
}

func TestRun_SingleTask(t *testing.T) {
	t.Parallel()

	f := newRouter(t, true)
	report, err := f.router.Run(context.Background(), "check memory usage")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Type != TaskDiagnostic {
		t.Fatalf("unexpected type: %s", report.Type)
	}
	if len(report.Results) != 1 || report.Results[0].Agent != "diagnostics" {
		t.Fatalf("unexpected results: %+v", report.Results)
	}
	if report.Combined != "diag output" {
		t.Fatalf("single result not verbatim: %q", report.Combined)
	}
	if f.diag.runs[0] != "" {
		t.Fatalf("first step received context: %q", f.diag.runs[0])
	}
}

func TestRun_CompositeOrderAndContext(t *testing.T) {
	t.Parallel()

	f := newRouter(t, true)
	report, err := f.router.Run(context.Background(), "check disk usage, read the files, and propose a fix")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Type != TaskComposite {
		t.Fatalf("unexpected type: %s", report.Type)
	}
	if len(report.Results) != 3 {
		t.Fatalf("expected 3 results, got %+v", report.Results)
	}
	order := []string{report.Results[0].Agent, report.Results[1].Agent, report.Results[2].Agent}
	if order[0] != "diagnostics" || order[1] != "file-analysis" || order[2] != "change-proposal" {
		t.Fatalf("wrong step order: %v", order)
	}

	// Each step sees the accumulated output of the steps before it.
	if f.diag.runs[0] != "" {
		t.Fatalf("diagnostics got context: %q", f.diag.runs[0])
	}
	if !strings.Contains(f.files.runs[0], "diag output") {
		t.Fatalf("file analysis missing diagnostics context: %q", f.files.runs[0])
	}
	if !strings.Contains(f.change.runs[0], "diag output") || !strings.Contains(f.change.runs[0], "files output") {
		t.Fatalf("change proposal missing accumulated context: %q", f.change.runs[0])
	}

	for _, section := range []string{"## diagnostics", "## file-analysis", "## change-proposal"} {
		if !strings.Contains(report.Combined, section) {
			t.Fatalf("combined output missing %q:\n%s", section, report.Combined)
		}
	}
}

func TestRun_TwoCategoryComposite(t *testing.T) {
	t.Parallel()

	f := newRouter(t, true)
	report, err := f.router.Run(context.Background(), "check memory and propose writing hello.txt")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Type != TaskComposite {
		t.Fatalf("unexpected type: %s", report.Type)
	}
	if len(report.Results) != 2 {
		t.Fatalf("expected 2 results, got %+v", report.Results)
	}
	if report.Results[0].Agent != "diagnostics" || report.Results[1].Agent != "change-proposal" {
		t.Fatalf("wrong callers or order: %+v", report.Results)
	}
	if len(f.files.runs) != 0 {
		t.Fatal("unmatched category ran")
	}
	for _, section := range []string{"## diagnostics", "## change-proposal"} {
		if !strings.Contains(report.Combined, section) {
			t.Fatalf("combined output missing %q:\n%s", section, report.Combined)
		}
	}
}

func TestRun_AbortOnStepFailure(t *testing.T) {
	t.Parallel()

	f := newRouter(t, true)
	stepErr := errors.New("listing failed")
	f.files.err = stepErr

	report, err := f.router.Run(context.Background(), "check disk usage, read the files, and propose a fix")
	if !errors.Is(err, stepErr) {
		t.Fatalf("expected step error, got %v", err)
	}
	if len(report.Results) != 0 {
		t.Fatalf("partial results returned: %+v", report.Results)
	}
	if len(f.change.runs) != 0 {
		t.Fatal("later step ran after failure")
	}
}
