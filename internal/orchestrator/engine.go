package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/missionhq/missionctl/internal/config"
	"github.com/missionhq/missionctl/internal/content"
	"github.com/missionhq/missionctl/internal/mission"
	"github.com/missionhq/missionctl/internal/natsbus"
	"github.com/missionhq/missionctl/internal/reports"
	"github.com/missionhq/missionctl/internal/store"
)

// RunListener is notified when a run finishes, with its final status
// ("completed" or "stopped").
type RunListener func(run store.Run, status string)

// Engine plays the selected use case's five-stage deployment script. Each
// run owns a cancellation context checked before every stage, so stopping a
// deployment guarantees no later stage mutates state.
type Engine struct {
	state   *mission.State
	store   *store.Store
	catalog *content.Catalog
	client  *natsbus.Client
	reports *reports.Service

	stageInterval time.Duration

	mu        sync.Mutex
	cancel    context.CancelFunc
	activeRun *store.Run

	listenerMu sync.RWMutex
	listeners  []RunListener
}

func New(state *mission.State, s *store.Store, catalog *content.Catalog, bus *natsbus.Bus, rep *reports.Service, cfg config.EngineConfig) *Engine {
	e := &Engine{
		state:         state,
		store:         s,
		catalog:       catalog,
		reports:       rep,
		stageInterval: cfg.StageInterval,
	}
	if e.stageInterval <= 0 {
		e.stageInterval = time.Second
	}

	if bus != nil {
		client, err := natsbus.NewClient(bus)
		if err != nil {
			slog.Error("engine nats client failed", "error", err)
		} else {
			e.client = client
		}
	}

	return e
}

// OnRunFinished registers a listener for run completion and stop.
func (e *Engine) OnRunFinished(l RunListener) {
	e.listenerMu.Lock()
	defer e.listenerMu.Unlock()
	e.listeners = append(e.listeners, l)
}

// Running reports whether a deployment script is currently in flight.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeRun != nil
}

// StartRun begins the staged playback for the currently selected use case.
func (e *Engine) StartRun(trigger string) (*store.Run, error) {
	useCaseID := e.state.UseCaseID()
	if useCaseID == "" {
		return nil, fmt.Errorf("no use case selected")
	}

	e.mu.Lock()
	if e.activeRun != nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("deployment already in progress")
	}

	run := &store.Run{
		ID:        uuid.New().String(),
		UseCaseID: useCaseID,
		Status:    "running",
		Trigger:   trigger,
	}
	if err := e.store.SaveRun(run); err != nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("save run: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.activeRun = run
	e.mu.Unlock()

	slog.Info("deployment started", "run", run.ID, "use_case", useCaseID, "trigger", trigger)

	// Immediate effects: reset log, initial message, all agents active.
	e.state.SetDeployed(true)
	e.state.AppendDeployment(e.catalog.InitialLogFor(useCaseID))
	e.sweepAgents(mission.StatusActive)

	go e.play(ctx, *run)

	return run, nil
}

// Stop halts the deployment. Every agent goes inactive and exactly one
// "stopped by user" line is appended, no matter how many stages had fired.
func (e *Engine) Stop() error {
	if !e.state.Deployed() {
		return fmt.Errorf("not deployed")
	}

	e.mu.Lock()
	run := e.activeRun
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.activeRun = nil
	e.mu.Unlock()

	e.state.SetDeployed(false)
	e.sweepAgents(mission.StatusInactive)
	e.state.AppendDeployment("Deployment stopped by user")

	if run != nil {
		if err := e.store.FinishRun(run.ID, "stopped"); err != nil {
			slog.Error("finish stopped run failed", "run", run.ID, "error", err)
		}
		slog.Info("deployment stopped", "run", run.ID)
		e.notify(*run, "stopped")
	}
	return nil
}

func (e *Engine) play(ctx context.Context, run store.Run) {
	stages := e.catalog.StagesFor(run.UseCaseID)

	for _, stage := range stages {
		timer := time.NewTimer(e.stageInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		// The run may have been stopped between the timer firing and now.
		if ctx.Err() != nil {
			return
		}
		e.fireStage(run, stage)
	}

	e.complete(run)
}

func (e *Engine) fireStage(run store.Run, stage content.Stage) {
	for _, line := range stage.Deployment {
		e.state.AppendDeployment(line)
	}

	for _, ev := range stage.Events {
		entry := mission.IntegrationEntry{
			Message:  ev.Message,
			Type:     ev.Type,
			Agent:    ev.Agent,
			Workflow: ev.Workflow,
		}
		if entry.Type == "" {
			entry.Type = mission.LogInfo
		}
		e.state.AppendIntegration(entry)

		if err := e.store.SaveIntegrationLog(&store.IntegrationLog{
			RunID:     run.ID,
			UseCaseID: run.UseCaseID,
			Message:   entry.Message,
			Type:      entry.Type,
			Agent:     entry.Agent,
			Workflow:  entry.Workflow,
		}); err != nil {
			slog.Error("persist integration log failed", "run", run.ID, "error", err)
		}
	}

	switch stage.Name {
	case content.StageAnalyze:
		e.sweepAgents(mission.StatusProcessing)
	case content.StageComplete:
		e.sweepAgents(mission.StatusCompleted)
	}

	e.publish(natsbus.TopicWorkflowUpdate, natsbus.WorkflowUpdateEvent{
		RunID:           run.ID,
		Stage:           stage.Name,
		ActiveWorkflows: len(stage.Events),
	})

	slog.Debug("stage fired", "run", run.ID, "stage", stage.Name)
}

func (e *Engine) complete(run store.Run) {
	e.mu.Lock()
	// Stop may have won the race after the final stage.
	if e.activeRun == nil || e.activeRun.ID != run.ID {
		e.mu.Unlock()
		return
	}
	e.cancel = nil
	e.activeRun = nil
	e.mu.Unlock()

	if err := e.store.FinishRun(run.ID, "completed"); err != nil {
		slog.Error("finish run failed", "run", run.ID, "error", err)
	}

	// Report generation failure degrades to a warning line, never an error
	// out of the engine.
	if _, err := e.reports.Generate(run.UseCaseID, run.ID); err != nil {
		slog.Warn("report generation failed", "run", run.ID, "error", err)
		e.state.AppendDeployment(fmt.Sprintf("Warning: report generation failed: %v", err))
	}

	slog.Info("deployment completed", "run", run.ID, "use_case", run.UseCaseID)
	e.notify(run, "completed")
}

func (e *Engine) sweepAgents(status string) {
	e.state.SetAllStatuses(status)
	for _, id := range e.state.AgentIDs() {
		e.publish(natsbus.TopicAgentStatus, natsbus.AgentStatusEvent{AgentID: id, Status: status})
	}
}

func (e *Engine) publish(topic string, v any) {
	if e.client == nil {
		return
	}
	if err := e.client.PublishJSON(topic, v); err != nil {
		slog.Warn("publish failed", "topic", topic, "error", err)
	}
}

func (e *Engine) notify(run store.Run, status string) {
	e.listenerMu.RLock()
	defer e.listenerMu.RUnlock()
	for _, l := range e.listeners {
		l(run, status)
	}
}
