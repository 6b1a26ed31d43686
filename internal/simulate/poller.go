package simulate

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/missionhq/missionctl/internal/config"
	"github.com/missionhq/missionctl/internal/content"
	"github.com/missionhq/missionctl/internal/mission"
)

// Poller is the fallback engine: when no push subscriber is connected it
// keeps the operations view alive by synthesizing activity on an interval.
// It is cosmetic animation over the shared state, nothing more.
type Poller struct {
	state     *mission.State
	catalog   *content.Catalog
	interval  time.Duration
	connected func() bool
	gen       Generator
	rng       *rand.Rand
}

// NewPoller builds a poller; connected reports whether a push channel is
// currently serving clients, re-checked on every tick.
func NewPoller(state *mission.State, catalog *content.Catalog, cfg config.PollerConfig, connected func() bool) *Poller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		state:     state,
		catalog:   catalog,
		interval:  interval,
		connected: connected,
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	slog.Info("polling fallback started", "interval", p.interval)

	// One immediate tick so a freshly deployed dashboard is not empty for a
	// full interval.
	p.Tick(time.Now())

	for {
		select {
		case <-ctx.Done():
			slog.Info("polling fallback stopped")
			return
		case now := <-ticker.C:
			p.Tick(now)
		}
	}
}

// Tick runs one synthesis pass. It is a no-op unless a deployment is live
// and the push channel has no subscribers.
func (p *Poller) Tick(now time.Time) {
	if !p.state.Deployed() || p.connected() {
		return
	}

	p.state.AddTasks(1 + p.rng.IntN(5))
	if p.rng.Float64() < 0.05 {
		p.state.AddFailed(1)
	}
	p.state.JitterAvgDuration((p.rng.Float64() - 0.5) * 0.4)
	p.state.SetActiveWorkflows(1 + p.rng.IntN(4))

	agents := p.state.Agents()
	if len(agents) > 0 {
		p.recordActivity(agents)

		for _, a := range agents {
			cpu, mem := p.gen.AgentLoad(a.ID, now)
			p.state.SetAgentMetrics(a.ID, cpu, mem)
		}

		if p.rng.Float64() < 0.3 {
			statuses := []string{mission.StatusActive, mission.StatusProcessing, mission.StatusCompleted}
			pick := agents[p.rng.IntN(len(agents))]
			p.state.SetAgentStatus(pick.ID, statuses[p.rng.IntN(len(statuses))])
		}
	}
}

func (p *Poller) recordActivity(agents []mission.Agent) {
	templates := p.catalog.ActivityFor(p.state.UseCaseID())
	if len(templates) == 0 {
		return
	}

	status := "success"
	if p.rng.Float64() < 0.1 {
		status = "warning"
	}

	p.state.RecordActivity(mission.Activity{
		ID:     uuid.New().String(),
		Agent:  agents[p.rng.IntN(len(agents))].Name,
		Action: fmt.Sprintf("%s #%04d", templates[p.rng.IntN(len(templates))], p.rng.IntN(10000)),
		Status: status,
	})
}
