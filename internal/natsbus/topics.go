package natsbus

// Subjects for the four dashboard push event types, plus the wildcard the
// web layer forwards to browsers.

const (
	TopicAgentStatus    = "events.agent.status"
	TopicWorkflowUpdate = "events.workflow.update"
	TopicTaskComplete   = "events.task.complete"
	TopicMetricsUpdate  = "events.metrics.update"

	TopicEventsAll = "events.>"
)

// AgentStatusEvent is published whenever an agent's status changes.
type AgentStatusEvent struct {
	AgentID string `json:"agent_id"`
	Status  string `json:"status"`
}

// WorkflowUpdateEvent reports the current active workflow count.
type WorkflowUpdateEvent struct {
	RunID           string `json:"run_id,omitempty"`
	Stage           string `json:"stage,omitempty"`
	ActiveWorkflows int    `json:"active_workflows"`
}

// TaskCompleteEvent reports task counter movements and the activity that
// produced them.
type TaskCompleteEvent struct {
	Agent  string `json:"agent"`
	Action string `json:"action"`
	Status string `json:"status"`
	Total  int    `json:"total"`
	Failed int    `json:"failed"`
}

// MetricsUpdateEvent carries the synthesized operations figures. Negative
// values mean "unchanged".
type MetricsUpdateEvent struct {
	TotalTasks      int     `json:"total_tasks"`
	FailedTasks     int     `json:"failed_tasks"`
	ActiveWorkflows int     `json:"active_workflows"`
	AvgDuration     float64 `json:"avg_duration"`
}
