package content

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultID backs any per-concern gap in a named bundle. Unknown use-case
// ids are rejected at selection time; the fallback applies per concern, not
// per id.
const DefaultID = "default"

// Catalog holds all use-case content bundles loaded from the content
// directory. It is immutable after Load.
type Catalog struct {
	bundles map[string]*Bundle
	process DecisionProcess
}

// Load reads every *.yaml bundle under dir. A "default" bundle is required,
// and the default bundle must cover all five script stages.
func Load(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read content dir: %w", err)
	}

	c := &Catalog{bundles: make(map[string]*Bundle)}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())

		if e.Name() == "decision_process.yaml" {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", e.Name(), err)
			}
			if err := yaml.Unmarshal(data, &c.process); err != nil {
				return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
			}
			continue
		}

		b, err := loadBundle(path)
		if err != nil {
			return nil, err
		}
		if _, dup := c.bundles[b.ID]; dup {
			return nil, fmt.Errorf("duplicate use case id %q in %s", b.ID, e.Name())
		}
		c.bundles[b.ID] = b
	}

	def, ok := c.bundles[DefaultID]
	if !ok {
		return nil, fmt.Errorf("content dir %s has no %q bundle", dir, DefaultID)
	}
	if err := validateStages(def); err != nil {
		return nil, fmt.Errorf("default bundle: %w", err)
	}

	return c, nil
}

func loadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if b.ID == "" {
		return nil, fmt.Errorf("bundle %s has no id", filepath.Base(path))
	}
	return &b, nil
}

func validateStages(b *Bundle) error {
	seen := make(map[string]bool, len(b.Stages))
	for _, st := range b.Stages {
		seen[st.Name] = true
	}
	for _, name := range StageOrder {
		if !seen[name] {
			return fmt.Errorf("missing stage %q", name)
		}
	}
	return nil
}

// UseCases returns all non-default bundles sorted by industry, then name.
func (c *Catalog) UseCases() []*Bundle {
	out := make([]*Bundle, 0, len(c.bundles))
	for id, b := range c.bundles {
		if id == DefaultID {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Industry != out[j].Industry {
			return out[i].Industry < out[j].Industry
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Has reports whether id names a bundle in the catalog (default included).
func (c *Catalog) Has(id string) bool {
	_, ok := c.bundles[id]
	return ok
}

// Get returns the bundle for id, or nil if unknown.
func (c *Catalog) Get(id string) *Bundle {
	return c.bundles[id]
}

func (c *Catalog) fallback(id string, pick func(*Bundle) bool) *Bundle {
	if b, ok := c.bundles[id]; ok && pick(b) {
		return b
	}
	return c.bundles[DefaultID]
}

// StagesFor returns the deployment script for id, falling back to the
// default script when the bundle declares none (or an incomplete set).
func (c *Catalog) StagesFor(id string) []Stage {
	b := c.fallback(id, func(b *Bundle) bool { return validateStages(b) == nil })
	return b.Stages
}

// InitialLogFor returns the immediate deployment message for id.
func (c *Catalog) InitialLogFor(id string) string {
	b := c.fallback(id, func(b *Bundle) bool { return b.InitialLog != "" })
	return b.InitialLog
}

// AgentsFor returns the agent roster declarations for id.
func (c *Catalog) AgentsFor(id string) []AgentSpec {
	b := c.fallback(id, func(b *Bundle) bool { return len(b.Agents) > 0 })
	return b.Agents
}

// ActivityFor returns the activity phrase templates for id.
func (c *Catalog) ActivityFor(id string) []string {
	b := c.fallback(id, func(b *Bundle) bool { return len(b.Activity) > 0 })
	return b.Activity
}

// DatasetsFor returns the preloaded datasets for id. No default fallback:
// a use case without datasets shows an empty list rather than filler.
func (c *Catalog) DatasetsFor(id string) []Dataset {
	if b, ok := c.bundles[id]; ok {
		return b.Datasets
	}
	return nil
}

// ReportsFor returns the report manifests for id.
func (c *Catalog) ReportsFor(id string) []ReportSpec {
	b := c.fallback(id, func(b *Bundle) bool { return len(b.Reports) > 0 })
	return b.Reports
}

// ObjectivesFor returns the agent performance objectives for id.
func (c *Catalog) ObjectivesFor(id string) []Objective {
	b := c.fallback(id, func(b *Bundle) bool { return len(b.Objectives) > 0 })
	return b.Objectives
}

// Process returns the shared agent decision process.
func (c *Catalog) Process() DecisionProcess {
	return c.process
}
