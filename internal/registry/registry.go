package registry

import (
	"fmt"
	"log/slog"

	"github.com/missionhq/missionctl/internal/content"
	"github.com/missionhq/missionctl/internal/mission"
	"github.com/missionhq/missionctl/internal/store"
)

// Registry syncs the content catalog's use cases into the store and owns
// which one is selected. Selection is the only mutable aspect of a use
// case; rosters are instantiated fresh on every switch.
type Registry struct {
	store   *store.Store
	catalog *content.Catalog
	state   *mission.State
}

func New(s *store.Store, catalog *content.Catalog, state *mission.State) *Registry {
	return &Registry{
		store:   s,
		catalog: catalog,
		state:   state,
	}
}

// Sync upserts every catalog use case into the store and prunes rows whose
// bundle no longer exists.
func (r *Registry) Sync() error {
	bundles := r.catalog.UseCases()
	ids := make([]string, 0, len(bundles))
	for _, b := range bundles {
		ids = append(ids, b.ID)
		u := &store.UseCase{
			ID:       b.ID,
			Name:     b.Name,
			Industry: b.Industry,
			Active:   b.Active,
		}
		if err := r.store.SaveUseCase(u); err != nil {
			return fmt.Errorf("sync use case %s: %w", b.ID, err)
		}
	}

	if err := r.store.DeleteUseCasesNotIn(ids); err != nil {
		return fmt.Errorf("prune use cases: %w", err)
	}

	slog.Info("use case registry synced", "count", len(ids))
	return nil
}

// Select switches the dashboard to the named use case. Inactive and unknown
// use cases are rejected and leave the current selection untouched.
func (r *Registry) Select(id string) error {
	b := r.catalog.Get(id)
	if b == nil || id == content.DefaultID {
		return fmt.Errorf("unknown use case: %s", id)
	}
	if !b.Active {
		return fmt.Errorf("use case not available: %s", id)
	}

	r.state.SetUseCase(id, r.catalog.AgentsFor(id))

	if err := r.store.SetSelectedUseCase(id); err != nil {
		return fmt.Errorf("persist selection: %w", err)
	}

	slog.Info("use case selected", "id", id, "agents", len(r.state.Agents()))
	return nil
}

// Restore re-applies the persisted selection on boot, falling back to the
// first active use case when nothing valid is stored.
func (r *Registry) Restore() error {
	id, err := r.store.SelectedUseCase()
	if err != nil {
		return fmt.Errorf("load selection: %w", err)
	}

	if id != "" {
		if err := r.Select(id); err == nil {
			return nil
		}
		slog.Warn("stored selection no longer selectable", "id", id)
	}

	for _, b := range r.catalog.UseCases() {
		if b.Active {
			return r.Select(b.ID)
		}
	}
	return fmt.Errorf("no active use case in catalog")
}

// Catalog exposes the content lookups the web layer serves.
func (r *Registry) Catalog() *content.Catalog {
	return r.catalog
}
