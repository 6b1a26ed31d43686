package mission

import (
	"fmt"
	"sync"
	"time"

	"github.com/missionhq/missionctl/internal/content"
)

// State is the single shared state tree behind the dashboard. All mutation
// goes through its methods under one mutex; when the push and poll paths
// both write, last write wins. That policy is deliberate: there is no
// sequencing to reconcile, matching the transport contract.
type State struct {
	mu sync.RWMutex

	useCaseID string
	deployed  bool

	agents     []Agent
	deployLog  []DeploymentEntry
	eventLog   []IntegrationEntry
	operations OperationsSnapshot
}

func NewState() *State {
	return &State{
		operations: OperationsSnapshot{AvgDuration: 2.4},
	}
}

// SetUseCase replaces the agent roster wholesale and resets all run state.
// Nothing from the previous use case survives the switch.
func (s *State) SetUseCase(id string, roster []content.AgentSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.useCaseID = id
	s.deployed = false
	s.deployLog = nil
	s.eventLog = nil
	s.operations = OperationsSnapshot{AvgDuration: 2.4}

	s.agents = make([]Agent, 0, len(roster))
	for _, spec := range roster {
		s.agents = append(s.agents, Agent{
			ID:          spec.ID,
			Name:        spec.Name,
			Type:        spec.Type,
			Status:      StatusInactive,
			Position:    Position{X: spec.X, Y: spec.Y},
			Tasks:       append([]string(nil), spec.Tasks...),
			Connections: append([]string(nil), spec.Connections...),
		})
	}
}

func (s *State) UseCaseID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.useCaseID
}

func (s *State) SetDeployed(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deployed = v
	if v {
		s.deployLog = nil
	}
}

func (s *State) Deployed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deployed
}

// Agents returns a copy of the roster.
func (s *State) Agents() []Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Agent, len(s.agents))
	copy(out, s.agents)
	return out
}

func (s *State) AgentIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.agents))
	for i, a := range s.agents {
		ids[i] = a.ID
	}
	return ids
}

// SetAllStatuses sweeps every agent to status.
func (s *State) SetAllStatuses(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.agents {
		s.agents[i].Status = status
	}
}

func (s *State) SetAgentStatus(id, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.agents {
		if s.agents[i].ID == id {
			s.agents[i].Status = status
			return true
		}
	}
	return false
}

// MoveAgent updates position only; drag interactions never touch status.
func (s *State) MoveAgent(id string, x, y float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.agents {
		if s.agents[i].ID == id {
			s.agents[i].Position = Position{X: x, Y: y}
			return true
		}
	}
	return false
}

// SetAgentMetrics writes the simulated CPU/memory figures for id.
func (s *State) SetAgentMetrics(id string, cpu, mem float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.agents {
		if s.agents[i].ID == id {
			s.agents[i].CPU = cpu
			s.agents[i].Memory = mem
			return
		}
	}
}

func (s *State) AppendDeployment(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deployLog = append(s.deployLog, DeploymentEntry{Timestamp: time.Now(), Message: msg})
}

func (s *State) DeploymentLog() []DeploymentEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DeploymentEntry, len(s.deployLog))
	copy(out, s.deployLog)
	return out
}

func (s *State) AppendIntegration(e IntegrationEntry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventLog = append(s.eventLog, e)
}

func (s *State) IntegrationLog() []IntegrationEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]IntegrationEntry, len(s.eventLog))
	copy(out, s.eventLog)
	return out
}

// RecordActivity prepends a feed entry, evicting the oldest beyond
// MaxActivities.
func (s *State) RecordActivity(a Activity) {
	if a.Time.IsZero() {
		a.Time = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operations.Activities = append([]Activity{a}, s.operations.Activities...)
	if len(s.operations.Activities) > MaxActivities {
		s.operations.Activities = s.operations.Activities[:MaxActivities]
	}
}

func (s *State) AddTasks(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operations.TotalTasks += n
}

func (s *State) AddFailed(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operations.FailedTasks += n
}

func (s *State) SetActiveWorkflows(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operations.ActiveWorkflows = n
}

// JitterAvgDuration nudges the synthetic average duration, floored at 0.1s.
func (s *State) JitterAvgDuration(delta float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operations.AvgDuration += delta
	if s.operations.AvgDuration < 0.1 {
		s.operations.AvgDuration = 0.1
	}
}

// MergeMetrics applies a push-side metrics update; negative fields mean
// "leave unchanged".
func (s *State) MergeMetrics(totalTasks, failedTasks, activeWorkflows int, avgDuration float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if totalTasks >= 0 {
		s.operations.TotalTasks = totalTasks
	}
	if failedTasks >= 0 {
		s.operations.FailedTasks = failedTasks
	}
	if activeWorkflows >= 0 {
		s.operations.ActiveWorkflows = activeWorkflows
	}
	if avgDuration >= 0 {
		s.operations.AvgDuration = avgDuration
	}
}

// Operations returns a snapshot with display ages computed from stored
// timestamps at read time.
func (s *State) Operations() OperationsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.operations
	out.Activities = make([]Activity, len(s.operations.Activities))
	copy(out.Activities, s.operations.Activities)

	now := time.Now()
	for i := range out.Activities {
		out.Activities[i].Age = displayAge(now.Sub(out.Activities[i].Time))
	}
	return out
}

// displayAge buckets elapsed time into 5-second display labels, capped at a
// minute.
func displayAge(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 5 {
		return "just now"
	}
	if secs >= 60 {
		return "1m+ ago"
	}
	return fmt.Sprintf("%ds ago", secs/5*5)
}
