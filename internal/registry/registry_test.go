package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/missionhq/missionctl/internal/config"
	"github.com/missionhq/missionctl/internal/content"
	"github.com/missionhq/missionctl/internal/mission"
	"github.com/missionhq/missionctl/internal/store"
)

const defaultYAML = `
id: default
name: Generic
active: true
initial_log: "Initializing..."
agents:
  - id: coordinator
    name: Coordinator Agent
    type: coordinator
stages:
  - name: connect
  - name: collect
  - name: analyze
  - name: execute
  - name: complete
`

const oilfieldYAML = `
id: oilfield-lease
name: Oilfield Lease Analysis
industry: Energy
active: true
agents:
  - id: doc-ingest
    name: Document Ingestion Agent
    type: collector
  - id: clause-extract
    name: Clause Extraction Agent
    type: analyst
`

const gridYAML = `
id: grid-anomaly
name: Grid Anomaly Detection
industry: Energy
active: true
agents:
  - id: pmu-collector
    name: PMU Collector
    type: collector
`

const inactiveYAML = `
id: claims-triage
name: Claims Triage
industry: Insurance
active: false
`

func newTestRegistry(t *testing.T) (*Registry, *store.Store, *mission.State) {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		"default.yaml":        defaultYAML,
		"oilfield-lease.yaml": oilfieldYAML,
		"grid-anomaly.yaml":   gridYAML,
		"claims-triage.yaml":  inactiveYAML,
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	catalog, err := content.Load(dir)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	s, err := store.New(config.StoreConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	state := mission.NewState()
	return New(s, catalog, state), s, state
}

func TestSyncWritesUseCases(t *testing.T) {
	reg, s, _ := newTestRegistry(t)

	// A stale row gets pruned on sync.
	_ = s.SaveUseCase(&store.UseCase{ID: "retired-demo", Name: "Retired", Active: true})

	if err := reg.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	ucs, err := s.ListUseCases()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ucs) != 3 {
		t.Fatalf("expected 3 use cases, got %d", len(ucs))
	}
	for _, u := range ucs {
		if u.ID == "retired-demo" {
			t.Error("stale use case should be pruned")
		}
		if u.ID == "claims-triage" && u.Active {
			t.Error("claims-triage should sync as inactive")
		}
	}
}

func TestSelectReplacesRoster(t *testing.T) {
	reg, _, state := newTestRegistry(t)

	if err := reg.Select("oilfield-lease"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if state.UseCaseID() != "oilfield-lease" {
		t.Errorf("expected oilfield-lease selected, got %s", state.UseCaseID())
	}
	if len(state.Agents()) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(state.Agents()))
	}

	if err := reg.Select("grid-anomaly"); err != nil {
		t.Fatalf("switch: %v", err)
	}
	for _, a := range state.Agents() {
		if a.ID == "doc-ingest" || a.ID == "clause-extract" {
			t.Errorf("leftover oilfield agent %s", a.ID)
		}
	}
	if len(state.Agents()) != 1 {
		t.Errorf("expected grid roster of 1, got %d", len(state.Agents()))
	}
}

func TestSelectRejectsInactiveAndUnknown(t *testing.T) {
	reg, s, state := newTestRegistry(t)

	if err := reg.Select("oilfield-lease"); err != nil {
		t.Fatalf("select: %v", err)
	}

	if err := reg.Select("claims-triage"); err == nil {
		t.Error("selecting an inactive use case must fail")
	}
	if err := reg.Select("nonexistent"); err == nil {
		t.Error("selecting an unknown use case must fail")
	}
	if err := reg.Select("default"); err == nil {
		t.Error("the default bundle is not directly selectable")
	}

	// Selection unchanged after every rejection.
	if state.UseCaseID() != "oilfield-lease" {
		t.Errorf("selection changed to %s", state.UseCaseID())
	}
	stored, _ := s.SelectedUseCase()
	if stored != "oilfield-lease" {
		t.Errorf("persisted selection changed to %s", stored)
	}
}

func TestRestore(t *testing.T) {
	reg, s, state := newTestRegistry(t)

	// Nothing stored: fall back to first active use case.
	if err := reg.Restore(); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if state.UseCaseID() == "" {
		t.Fatal("restore should select something")
	}

	// Stored selection wins.
	_ = s.SetSelectedUseCase("grid-anomaly")
	if err := reg.Restore(); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if state.UseCaseID() != "grid-anomaly" {
		t.Errorf("expected grid-anomaly restored, got %s", state.UseCaseID())
	}

	// A stored id that went inactive falls back instead of failing.
	_ = s.SetSelectedUseCase("claims-triage")
	if err := reg.Restore(); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if state.UseCaseID() == "claims-triage" {
		t.Error("restore must not select an inactive use case")
	}
}
