package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/missionhq/missionctl/internal/config"
	"github.com/missionhq/missionctl/internal/content"
	"github.com/missionhq/missionctl/internal/mission"
	"github.com/missionhq/missionctl/internal/orchestrator"
	"github.com/missionhq/missionctl/internal/registry"
	"github.com/missionhq/missionctl/internal/reports"
	"github.com/missionhq/missionctl/internal/store"
)

const defaultBundle = `
id: default
name: Generic
active: true
initial_log: "Initializing..."
stages:
  - name: connect
    deployment: ["Connecting..."]
  - name: collect
    deployment: ["Collecting..."]
  - name: analyze
    deployment: ["Analyzing..."]
  - name: execute
    deployment: ["Executing..."]
  - name: complete
    deployment: ["Done."]
`

const fraudBundle = `
id: fraud-detection
name: Fraud Detection
industry: Financial Services
active: true
summary:
  headline: "Stop fraud in real time"
agents:
  - id: monitor
    name: Transaction Monitor
    type: collector
datasets:
  - name: Transactions
    records: 100000
    format: parquet
`

func newTestServer(t *testing.T, auth string) (*Server, *httptest.Server) {
	t.Helper()

	cdir := t.TempDir()
	for name, body := range map[string]string{
		"default.yaml": defaultBundle,
		"fraud.yaml":   fraudBundle,
	} {
		if err := os.WriteFile(filepath.Join(cdir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write bundle: %v", err)
		}
	}
	catalog, err := content.Load(cdir)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	st, err := store.New(config.StoreConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	state := mission.NewState()
	reg := registry.New(st, catalog, state)
	if err := reg.Sync(); err != nil {
		t.Fatalf("sync registry: %v", err)
	}

	rep := reports.New(st, catalog, t.TempDir())
	eng := orchestrator.New(state, st, catalog, nil, rep, config.EngineConfig{StageInterval: 50 * time.Millisecond})

	srv := NewServer(st, nil, eng, reg, rep, state, config.WebConfig{Auth: auth}, "test")

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", srv.handleLogin)
	mux.HandleFunc("POST /api/logout", srv.handleLogout)
	mux.HandleFunc("GET /api/auth/check", srv.handleAuthCheck)
	srv.registerAPI(mux)
	ts := httptest.NewServer(srv.withMiddleware(mux))
	t.Cleanup(ts.Close)

	return srv, ts
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	resp.Body.Close()
	return resp
}

func TestListUseCasesExcludesDefault(t *testing.T) {
	_, ts := newTestServer(t, "")

	var cases []map[string]any
	getJSON(t, ts.URL+"/api/usecases", &cases)

	if len(cases) != 1 {
		t.Fatalf("expected 1 use case, got %d", len(cases))
	}
	if cases[0]["id"] != "fraud-detection" || cases[0]["industry"] != "Financial Services" {
		t.Fatalf("unexpected use case: %v", cases[0])
	}
}

func TestSelectAndDeploy(t *testing.T) {
	srv, ts := newTestServer(t, "")

	if resp := postJSON(t, ts.URL+"/api/usecases/fraud-detection/select", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("select status = %d", resp.StatusCode)
	}
	if got := srv.state.UseCaseID(); got != "fraud-detection" {
		t.Fatalf("selected = %q", got)
	}

	if resp := postJSON(t, ts.URL+"/api/deploy", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("deploy status = %d", resp.StatusCode)
	}
	// Second deploy while running conflicts.
	if resp := postJSON(t, ts.URL+"/api/deploy", nil); resp.StatusCode != http.StatusConflict {
		t.Fatalf("concurrent deploy status = %d, want 409", resp.StatusCode)
	}
	if resp := postJSON(t, ts.URL+"/api/deploy/stop", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("stop status = %d", resp.StatusCode)
	}
}

func TestSelectUnknownUseCaseFails(t *testing.T) {
	_, ts := newTestServer(t, "")
	if resp := postJSON(t, ts.URL+"/api/usecases/nope/select", nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestIntegrationLogFilterEndpoint(t *testing.T) {
	srv, ts := newTestServer(t, "")
	srv.state.AppendIntegration(mission.IntegrationEntry{Message: "a", Type: "info", Agent: "Monitor", Workflow: "Ingest"})
	srv.state.AppendIntegration(mission.IntegrationEntry{Message: "b", Type: "success", Agent: "Responder", Workflow: "Block"})

	var all []mission.IntegrationEntry
	getJSON(t, ts.URL+"/api/integration-logs", &all)
	if len(all) != 2 {
		t.Fatalf("unfiltered = %d entries, want 2", len(all))
	}

	var filtered []mission.IntegrationEntry
	getJSON(t, ts.URL+"/api/integration-logs?agent=Responder&event_type=success", &filtered)
	if len(filtered) != 1 || filtered[0].Message != "b" {
		t.Fatalf("filtered = %+v", filtered)
	}
}

func TestDatasetsEndpoint(t *testing.T) {
	srv, ts := newTestServer(t, "")
	srv.state.SetUseCase("fraud-detection", nil)

	var datasets []content.Dataset
	getJSON(t, ts.URL+"/api/datasets", &datasets)
	if len(datasets) != 1 || datasets[0].Name != "Transactions" {
		t.Fatalf("datasets = %+v", datasets)
	}
}

func TestStatusEndpoint(t *testing.T) {
	_, ts := newTestServer(t, "")
	var status map[string]any
	getJSON(t, ts.URL+"/api/status", &status)
	if status["version"] != "test" {
		t.Fatalf("status = %v", status)
	}
	if status["nats_connected"] != false {
		t.Fatal("expected nats_connected false without a bus")
	}
}

func TestAuthRequired(t *testing.T) {
	_, ts := newTestServer(t, "hunter2")

	if resp := getJSON(t, ts.URL+"/api/usecases", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	// Basic auth fallback works for programmatic access.
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/usecases", nil)
	req.SetBasicAuth("", "hunter2")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("basic auth status = %d", resp.StatusCode)
	}
}

func TestLoginSetsSession(t *testing.T) {
	_, ts := newTestServer(t, "hunter2")

	resp := postJSON(t, ts.URL+"/api/login", map[string]string{"password": "hunter2"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookieName {
			session = c
		}
	}
	if session == nil {
		t.Fatal("no session cookie set")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/usecases", nil)
	req.AddCookie(session)
	authed, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	authed.Body.Close()
	if authed.StatusCode != http.StatusOK {
		t.Fatalf("session status = %d", authed.StatusCode)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	_, ts := newTestServer(t, "hunter2")
	if resp := postJSON(t, ts.URL+"/api/login", map[string]string{"password": "nope"}); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestEventTypeMapping(t *testing.T) {
	cases := map[string]string{
		"events.agent.status":    "agent_status",
		"events.workflow.update": "workflow_update",
		"events.task.complete":   "task_complete",
		"events.metrics.update":  "metrics_update",
	}
	for subject, want := range cases {
		if got := eventType(subject); got != want {
			t.Errorf("eventType(%q) = %q, want %q", subject, got, want)
		}
	}
}
