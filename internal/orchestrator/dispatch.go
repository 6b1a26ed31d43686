package orchestrator

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/missionhq/missionctl/internal/mission"
	"github.com/missionhq/missionctl/internal/natsbus"
)

// Dispatcher merges incoming push events into mission state. Merges are
// absolute-value sets with last-write-wins semantics; there is no sequence
// reconciliation, so out-of-order delivery can briefly show inconsistent
// counters. That matches the transport contract.
type Dispatcher struct {
	state  *mission.State
	client *natsbus.Client
}

func NewDispatcher(state *mission.State, bus *natsbus.Bus) (*Dispatcher, error) {
	client, err := natsbus.NewClient(bus)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{state: state, client: client}

	subs := map[string]func(*nats.Msg){
		natsbus.TopicAgentStatus:    d.onAgentStatus,
		natsbus.TopicWorkflowUpdate: d.onWorkflowUpdate,
		natsbus.TopicTaskComplete:   d.onTaskComplete,
		natsbus.TopicMetricsUpdate:  d.onMetricsUpdate,
	}
	for topic, handler := range subs {
		if _, err := client.Subscribe(topic, handler); err != nil {
			client.Close()
			return nil, err
		}
	}

	return d, nil
}

func (d *Dispatcher) Close() {
	if d.client != nil {
		d.client.Close()
	}
}

func (d *Dispatcher) onAgentStatus(msg *nats.Msg) {
	var ev natsbus.AgentStatusEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		slog.Warn("invalid agent status event", "error", err)
		return
	}
	d.state.SetAgentStatus(ev.AgentID, ev.Status)
}

func (d *Dispatcher) onWorkflowUpdate(msg *nats.Msg) {
	var ev natsbus.WorkflowUpdateEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		slog.Warn("invalid workflow update event", "error", err)
		return
	}
	d.state.SetActiveWorkflows(ev.ActiveWorkflows)
}

func (d *Dispatcher) onTaskComplete(msg *nats.Msg) {
	var ev natsbus.TaskCompleteEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		slog.Warn("invalid task complete event", "error", err)
		return
	}

	d.state.MergeMetrics(ev.Total, ev.Failed, -1, -1)
	if ev.Agent != "" {
		d.state.RecordActivity(mission.Activity{
			ID:     uuid.New().String(),
			Agent:  ev.Agent,
			Action: ev.Action,
			Status: ev.Status,
		})
	}
}

func (d *Dispatcher) onMetricsUpdate(msg *nats.Msg) {
	var ev natsbus.MetricsUpdateEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		slog.Warn("invalid metrics update event", "error", err)
		return
	}
	d.state.MergeMetrics(ev.TotalTasks, ev.FailedTasks, ev.ActiveWorkflows, ev.AvgDuration)
}
