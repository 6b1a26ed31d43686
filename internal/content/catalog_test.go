package content

import (
	"os"
	"path/filepath"
	"testing"
)

const defaultYAML = `
id: default
name: Generic
industry: General
active: true
initial_log: "Initializing agents..."
agents:
  - id: coordinator
    name: Coordinator Agent
    type: coordinator
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
activity_templates: ["Processed batch"]
reports:
  - name: Summary.pdf
    size: 1 MB
`

const sparseYAML = `
id: sparse-demo
name: Sparse Demo
industry: Retail
active: true
`

func writeContent(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestLoadRequiresDefault(t *testing.T) {
	dir := writeContent(t, map[string]string{"sparse-demo.yaml": sparseYAML})
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for missing default bundle")
	}
}

func TestLoadRequiresCompleteDefaultScript(t *testing.T) {
	bad := `
id: default
name: Generic
active: true
stages:
  - name: connect
    deployment: ["Connecting..."]
`
	dir := writeContent(t, map[string]string{"default.yaml": bad})
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for incomplete default script")
	}
}

func TestFallbackToDefault(t *testing.T) {
	dir := writeContent(t, map[string]string{
		"default.yaml":     defaultYAML,
		"sparse-demo.yaml": sparseYAML,
	})
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// Sparse bundle declares no script, roster, or templates: every concern
	// resolves from default.
	stages := c.StagesFor("sparse-demo")
	if len(stages) != 5 {
		t.Fatalf("expected 5 fallback stages, got %d", len(stages))
	}
	agents := c.AgentsFor("sparse-demo")
	if len(agents) != 1 || agents[0].ID != "coordinator" {
		t.Errorf("expected default roster, got %+v", agents)
	}
	if got := c.InitialLogFor("sparse-demo"); got != "Initializing agents..." {
		t.Errorf("expected default initial log, got %q", got)
	}
	if tmpl := c.ActivityFor("sparse-demo"); len(tmpl) != 1 {
		t.Errorf("expected default activity templates, got %v", tmpl)
	}
	if reps := c.ReportsFor("sparse-demo"); len(reps) != 1 {
		t.Errorf("expected default reports, got %v", reps)
	}

	// Unknown ids also resolve per-concern to default, but are not Has().
	if c.Has("nope") {
		t.Error("unknown id should not be in catalog")
	}
	if len(c.StagesFor("nope")) != 5 {
		t.Error("unknown id should resolve default script")
	}

	// Datasets stay empty rather than borrowing filler content.
	if ds := c.DatasetsFor("sparse-demo"); len(ds) != 0 {
		t.Errorf("expected no datasets for sparse bundle, got %v", ds)
	}
}

func TestUseCasesSortedAndExcludeDefault(t *testing.T) {
	dir := writeContent(t, map[string]string{
		"default.yaml":     defaultYAML,
		"sparse-demo.yaml": sparseYAML,
	})
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ucs := c.UseCases()
	if len(ucs) != 1 {
		t.Fatalf("expected 1 use case, got %d", len(ucs))
	}
	if ucs[0].ID != "sparse-demo" {
		t.Errorf("unexpected use case %s", ucs[0].ID)
	}
}

func TestDuplicateIDRejected(t *testing.T) {
	dup := "id: sparse-demo\nname: Dup\nactive: true\n"
	dir := writeContent(t, map[string]string{
		"default.yaml": defaultYAML,
		"a.yaml":       sparseYAML,
		"b.yaml":       dup,
	})
	if _, err := Load(dir); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestShippedContentDir(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "content"))
	if err != nil {
		t.Fatalf("load shipped content: %v", err)
	}

	for _, id := range []string{"fraud-detection", "oilfield-lease", "grid-anomaly"} {
		b := c.Get(id)
		if b == nil {
			t.Fatalf("missing shipped bundle %s", id)
		}
		if !b.Active {
			t.Errorf("%s should be active", id)
		}
		if err := validateStages(b); err != nil {
			t.Errorf("%s script: %v", id, err)
		}
	}

	// claims-triage ships inactive on purpose
	if b := c.Get("claims-triage"); b == nil || b.Active {
		t.Error("claims-triage should ship inactive")
	}

	// The fraud-detection execution stage carries the interdiction entry.
	found := false
	for _, st := range c.StagesFor("fraud-detection") {
		if st.Name != StageExecute {
			continue
		}
		for _, ev := range st.Events {
			if ev.Agent == "Response Agent" && ev.Workflow == "Transaction Blocking" {
				found = true
				if ev.Message != "Blocked 12 confirmed fraudulent transactions" {
					t.Errorf("unexpected interdiction message %q", ev.Message)
				}
			}
		}
	}
	if !found {
		t.Error("fraud-detection execute stage missing Transaction Blocking entry")
	}

	if len(c.Process().Steps) == 0 {
		t.Error("decision process should ship steps")
	}
}
