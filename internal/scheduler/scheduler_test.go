package scheduler

import (
	"encoding/json"
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
agents:
  - id: monitor
    name: Transaction Monitor
    type: collector
`

type testRig struct {
	sched    *Scheduler
	engine   *orchestrator.Engine
	registry *registry.Registry
	store    *store.Store
}

func newTestRig(t *testing.T) *testRig {
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

	s, err := store.New(config.StoreConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	state := mission.NewState()
	reg := registry.New(s, catalog, state)
	if err := reg.Sync(); err != nil {
		t.Fatalf("sync registry: %v", err)
	}

	rep := reports.New(s, catalog, t.TempDir())
	eng := orchestrator.New(state, s, catalog, nil, rep, config.EngineConfig{StageInterval: 5 * time.Millisecond})
	sched := New(s, reg, eng, config.ReplayConfig{PollInterval: time.Minute})

	return &testRig{sched: sched, engine: eng, registry: reg, store: s}
}

func waitForIdle(t *testing.T, e *orchestrator.Engine) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for e.Running() {
		if time.Now().After(deadline) {
			t.Fatal("engine still running")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func intervalSchedule(t *testing.T, ms int64) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{"kind": "interval", "interval_ms": ms})
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func saveDueTask(t *testing.T, s *store.Store, id, useCase, sched string) {
	t.Helper()
	past := time.Now().Add(-time.Minute)
	err := s.SaveReplayTask(&store.ReplayTask{
		ID:        id,
		UseCaseID: useCase,
		Name:      "kiosk loop",
		Schedule:  sched,
		Status:    "active",
		NextRunAt: &past,
	})
	if err != nil {
		t.Fatalf("save replay task: %v", err)
	}
}

func taskByID(t *testing.T, s *store.Store, id string) store.ReplayTask {
	t.Helper()
	tasks, err := s.ListReplayTasks()
	if err != nil {
		t.Fatalf("list replay tasks: %v", err)
	}
	for _, task := range tasks {
		if task.ID == id {
			return task
		}
	}
	t.Fatalf("task %s not found", id)
	return store.ReplayTask{}
}

func TestPollExecutesDueTask(t *testing.T) {
	rig := newTestRig(t)
	saveDueTask(t, rig.store, "rt1", "fraud-detection", intervalSchedule(t, 60_000))

	rig.sched.poll()
	waitForIdle(t, rig.engine)

	task := taskByID(t, rig.store, "rt1")
	if task.LastStatus != "success" {
		t.Fatalf("last status = %q (%s), want success", task.LastStatus, task.LastError)
	}
	if task.NextRunAt == nil || !task.NextRunAt.After(time.Now()) {
		t.Fatalf("next run not rescheduled: %v", task.NextRunAt)
	}

	runs, err := rig.store.ListRuns("", 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Trigger != "scheduler" {
		t.Fatalf("expected one scheduler-triggered run, got %+v", runs)
	}
}

func TestExecuteSkipsWhileDeploymentRunning(t *testing.T) {
	rig := newTestRig(t)
	if err := rig.registry.Select("fraud-detection"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := rig.engine.StartRun("manual"); err != nil {
		t.Fatalf("start run: %v", err)
	}

	saveDueTask(t, rig.store, "rt2", "fraud-detection", intervalSchedule(t, 60_000))
	rig.sched.execute(taskByID(t, rig.store, "rt2"))

	task := taskByID(t, rig.store, "rt2")
	if task.LastStatus != "skipped" {
		t.Fatalf("last status = %q, want skipped", task.LastStatus)
	}
	if task.NextRunAt == nil {
		t.Fatal("skipped task should still be rescheduled")
	}
	waitForIdle(t, rig.engine)
}

func TestExecuteRecordsSelectionError(t *testing.T) {
	rig := newTestRig(t)
	saveDueTask(t, rig.store, "rt3", "no-such-case", intervalSchedule(t, 60_000))

	rig.sched.execute(taskByID(t, rig.store, "rt3"))

	task := taskByID(t, rig.store, "rt3")
	if task.LastStatus != "error" || task.LastError == "" {
		t.Fatalf("expected recorded error, got %+v", task)
	}
}

func TestOneOffTaskCompletes(t *testing.T) {
	rig := newTestRig(t)
	once, err := json.Marshal(map[string]any{"kind": "once", "at_ms": time.Now().Add(-time.Hour).UnixMilli()})
	if err != nil {
		t.Fatal(err)
	}
	saveDueTask(t, rig.store, "rt4", "fraud-detection", string(once))

	rig.sched.execute(taskByID(t, rig.store, "rt4"))
	waitForIdle(t, rig.engine)

	task := taskByID(t, rig.store, "rt4")
	if task.Status != "completed" {
		t.Fatalf("status = %q, want completed", task.Status)
	}
	if task.NextRunAt != nil {
		t.Fatalf("one-off task should have no next run, got %v", task.NextRunAt)
	}
}
