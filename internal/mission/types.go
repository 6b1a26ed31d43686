package mission

import "time"

// Agent statuses.
const (
	StatusInactive   = "inactive"
	StatusActive     = "active"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
	StatusPaused     = "paused"
	StatusWaiting    = "waiting"
)

// Integration log entry types.
const (
	LogInfo    = "info"
	LogSuccess = "success"
	LogWarning = "warning"
	LogError   = "error"
)

// MaxActivities bounds the operations activity feed; older entries are
// evicted FIFO.
const MaxActivities = 8

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Agent is one simulated actor in the orchestration narrative. CPU and
// Memory are decorative figures produced by the simulated metrics
// generator, never real measurements.
type Agent struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Status      string   `json:"status"`
	Position    Position `json:"position"`
	Tasks       []string `json:"tasks"`
	Connections []string `json:"connections"`
	CPU         float64  `json:"cpu"`
	Memory      float64  `json:"memory"`
}

type DeploymentEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

type IntegrationEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Agent     string    `json:"agent"`
	Workflow  string    `json:"workflow"`
}

type Activity struct {
	ID     string    `json:"id"`
	Time   time.Time `json:"-"`
	Age    string    `json:"time"`
	Agent  string    `json:"agent"`
	Action string    `json:"action"`
	Status string    `json:"status"`
}

// OperationsSnapshot is the Operations tab's view of the world. Values are
// synthesized by whichever engine is currently authoritative.
type OperationsSnapshot struct {
	TotalTasks      int        `json:"total_tasks"`
	FailedTasks     int        `json:"failed_tasks"`
	AvgDuration     float64    `json:"avg_duration"`
	ActiveWorkflows int        `json:"active_workflows"`
	Activities      []Activity `json:"activities"`
}
