// Package scheduler runs replay tasks: stored schedules that re-select a
// use case and kick off a deployment, keeping demo kiosks cycling without
// an operator.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/missionhq/missionctl/internal/config"
	"github.com/missionhq/missionctl/internal/orchestrator"
	"github.com/missionhq/missionctl/internal/registry"
	"github.com/missionhq/missionctl/internal/schedule"
	"github.com/missionhq/missionctl/internal/store"
)

type Scheduler struct {
	store        *store.Store
	registry     *registry.Registry
	engine       *orchestrator.Engine
	pollInterval time.Duration
	reloadCh     chan struct{}
}

func New(s *store.Store, reg *registry.Registry, engine *orchestrator.Engine, cfg config.ReplayConfig) *Scheduler {
	return &Scheduler{
		store:        s,
		registry:     reg,
		engine:       engine,
		pollInterval: cfg.PollInterval,
		reloadCh:     make(chan struct{}, 1),
	}
}

// UpdateInterval changes the poll cadence and signals the run loop to
// reset its ticker.
func (s *Scheduler) UpdateInterval(pollInterval time.Duration) {
	s.pollInterval = pollInterval
	select {
	case s.reloadCh <- struct{}{}:
	default:
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	if s.pollInterval == 0 {
		s.pollInterval = 30 * time.Second
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	slog.Info("replay scheduler started", "poll_interval", s.pollInterval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("replay scheduler stopped")
			return
		case <-s.reloadCh:
			ticker.Reset(s.pollInterval)
			slog.Info("replay scheduler reloaded", "poll_interval", s.pollInterval)
		case <-ticker.C:
			s.poll()
		}
	}
}

func (s *Scheduler) poll() {
	tasks, err := s.store.GetDueReplayTasks(time.Now())
	if err != nil {
		slog.Error("failed to get due replay tasks", "error", err)
		return
	}

	for _, task := range tasks {
		s.execute(task)
	}
}

func (s *Scheduler) execute(task store.ReplayTask) {
	slog.Info("executing replay task", "id", task.ID, "name", task.Name, "use_case", task.UseCaseID)

	var lastStatus, lastError string
	switch {
	case s.engine.Running():
		// A live run wins over the kiosk loop; retry at the next slot.
		lastStatus = "skipped"
		lastError = "deployment already running"
		slog.Info("replay skipped, deployment in progress", "id", task.ID)
	default:
		err := s.registry.Select(task.UseCaseID)
		if err == nil {
			_, err = s.engine.StartRun("scheduler")
		}
		if err != nil {
			lastStatus = "error"
			lastError = err.Error()
			slog.Error("replay execution failed", "id", task.ID, "error", err)
		} else {
			lastStatus = "success"
		}
	}

	nextRun := schedule.NextRunOf(task.Schedule, time.Now())

	if err := s.store.UpdateReplayRun(task.ID, lastStatus, lastError, nextRun); err != nil {
		slog.Error("failed to update replay run", "id", task.ID, "error", err)
	}

	if nextRun == nil {
		slog.Info("no next run, marking one-off replay as completed", "id", task.ID, "name", task.Name)
		if err := s.store.UpdateReplayStatus(task.ID, "completed"); err != nil {
			slog.Error("failed to complete replay task", "id", task.ID, "error", err)
		}
	}
}
