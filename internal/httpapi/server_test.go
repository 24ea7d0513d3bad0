package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flemzord/gatehouse/internal/audit"
	"github.com/flemzord/gatehouse/internal/gateway"
	"github.com/flemzord/gatehouse/internal/router"
	"github.com/flemzord/gatehouse/internal/tool"
)

type fakeTaskRunner struct {
	report router.RunReport
	err    error
}

func (f *fakeTaskRunner) Run(_ context.Context, task string) (router.RunReport, error) {
	f.report.Task = task
	return f.report, f.err
}

type fakeStore struct {
	entries []audit.Entry
}

func (f *fakeStore) Recent(_ context.Context, limit int) ([]audit.Entry, error) {
	if limit > 0 && limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func newTestServer(t *testing.T, mutate func(*Config)) *Server {
	t.Helper()

	registry := tool.NewRegistry()
	def := tool.Definition{Name: "echo", Intent: "t", Safety: tool.SafetySafe}
	err := registry.Register(def, func(_ context.Context, args json.RawMessage, _ tool.ExecContext) (tool.Result, error) {
		return tool.Result{Success: true, Data: json.RawMessage(args)}, nil
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	recorder := audit.NewRecorder(audit.RecorderConfig{})
	gw, err := gateway.New(gateway.Config{Registry: registry, Audit: recorder})
	if err != nil {
		t.Fatalf("gateway.New: %v", err)
	}

	cfg := Config{
		Gateway: gw,
		Router:  &fakeTaskRunner{report: router.RunReport{Type: router.TaskDiagnostic}},
		Audit:   recorder,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	rec := doRequest(t, srv, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "ok" || resp.Tools != 1 {
		t.Fatalf("unexpected health response: %+v", resp)
	}
}

func TestListAndGetTools(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodGet, "/tools", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var defs []tool.Definition
	if err := json.Unmarshal(rec.Body.Bytes(), &defs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(defs) != 1 || defs[0].Name != "echo" {
		t.Fatalf("unexpected tool list: %+v", defs)
	}

	if rec := doRequest(t, srv, http.MethodGet, "/tools/echo", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}
	if rec := doRequest(t, srv, http.MethodGet, "/tools/missing", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing: expected 404, got %d", rec.Code)
	}
}

func TestInvoke(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodPost, "/invoke", `{"tool":"echo","inputs":{"x":1}}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp gateway.InvokeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Success || resp.Tool != "echo" || resp.RequestID == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestInvoke_ErrorStatusMapping(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)

	if rec := doRequest(t, srv, http.MethodPost, "/invoke", `{"tool":"missing"}`, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing tool: expected 404, got %d", rec.Code)
	}
	if rec := doRequest(t, srv, http.MethodPost, "/invoke", `not json`, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad body: expected 400, got %d", rec.Code)
	}
}

func TestBearerAuth(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, func(cfg *Config) { cfg.BearerToken = "secret-token" })

	// Public routes stay open.
	if rec := doRequest(t, srv, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}

	// Protected routes reject missing and wrong tokens.
	if rec := doRequest(t, srv, http.MethodPost, "/invoke", `{"tool":"echo"}`, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", rec.Code)
	}
	wrong := http.Header{"Authorization": {"Bearer nope"}}
	if rec := doRequest(t, srv, http.MethodPost, "/invoke", `{"tool":"echo"}`, wrong); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: expected 401, got %d", rec.Code)
	}

	right := http.Header{"Authorization": {"Bearer secret-token"}}
	if rec := doRequest(t, srv, http.MethodPost, "/invoke", `{"tool":"echo","inputs":{}}`, right); rec.Code != http.StatusOK {
		t.Fatalf("right token: expected 200, got %d", rec.Code)
	}
}

func TestTask(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodPost, "/tasks", `{"task":"check memory"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var report router.RunReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if report.Task != "check memory" || report.Type != router.TaskDiagnostic {
		t.Fatalf("unexpected report: %+v", report)
	}

	if rec := doRequest(t, srv, http.MethodPost, "/tasks", `{}`, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty task: expected 400, got %d", rec.Code)
	}
}

func TestTask_GatewayUnavailable(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, func(cfg *Config) {
		cfg.Router = &fakeTaskRunner{err: router.ErrGatewayUnavailable}
	})
	rec := doRequest(t, srv, http.MethodPost, "/tasks", `{"task":"anything"}`, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestAuditRecent(t *testing.T) {
	t.Parallel()

	store := &fakeStore{entries: []audit.Entry{
		{Tool: "echo", RequestID: "r2"},
		{Tool: "echo", RequestID: "r1"},
	}}
	srv := newTestServer(t, func(cfg *Config) { cfg.AuditStore = store })

	rec := doRequest(t, srv, http.MethodGet, "/audit/recent?limit=1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var entries []audit.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(entries) != 1 || entries[0].RequestID != "r2" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	if rec := doRequest(t, srv, http.MethodGet, "/audit/recent?limit=zero", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: expected 400, got %d", rec.Code)
	}
}

func TestAuditRecent_NoStore(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, nil)
	if rec := doRequest(t, srv, http.MethodGet, "/audit/recent", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
