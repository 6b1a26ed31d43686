package content

// Stage names of the deployment script, in playback order.
const (
	StageConnect  = "connect"
	StageCollect  = "collect"
	StageAnalyze  = "analyze"
	StageExecute  = "execute"
	StageComplete = "complete"
)

// StageOrder is the fixed playback sequence. The initial deployment message
// is emitted before the first stage fires.
var StageOrder = []string{StageConnect, StageCollect, StageAnalyze, StageExecute, StageComplete}

// Bundle is the complete content package for one demo use case. Every bundle
// is declared in its own YAML document under the content directory; the
// mandatory "default" bundle backs any per-concern gap in the others.
type Bundle struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Industry string `yaml:"industry"`
	Active   bool   `yaml:"active"`

	Summary    Summary      `yaml:"summary"`
	Agents     []AgentSpec  `yaml:"agents"`
	Stages     []Stage      `yaml:"stages"`
	InitialLog string       `yaml:"initial_log"`
	Activity   []string     `yaml:"activity_templates"`
	Datasets   []Dataset    `yaml:"datasets"`
	Reports    []ReportSpec `yaml:"reports"`
	Objectives []Objective  `yaml:"objectives"`
}

// Summary is the executive-summary copy for a use case.
type Summary struct {
	Headline   string   `yaml:"headline"`
	PainPoints []string `yaml:"pain_points"`
	ROI        string   `yaml:"roi"`
	CaseStudy  string   `yaml:"case_study"`
}

// AgentSpec declares one simulated agent in a use case's roster.
type AgentSpec struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	X           float64  `yaml:"x"`
	Y           float64  `yaml:"y"`
	Tasks       []string `yaml:"tasks"`
	Connections []string `yaml:"connections"`
}

// Stage is one group of canned log output in the deployment script.
type Stage struct {
	Name       string     `yaml:"name"`
	Deployment []string   `yaml:"deployment"`
	Events     []EventLog `yaml:"events"`
}

// EventLog is a canned integration-log line with its routing metadata.
type EventLog struct {
	Message  string `yaml:"message"`
	Type     string `yaml:"type"` // info, success, warning, error
	Agent    string `yaml:"agent"`
	Workflow string `yaml:"workflow"`
}

// Dataset describes a preloaded demo dataset shown on the Outputs tab.
type Dataset struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Records     int    `yaml:"records"`
	Format      string `yaml:"format"`
}

// ReportSpec is a report manifest entry; files are generated after a run.
type ReportSpec struct {
	Name        string `yaml:"name"`
	Size        string `yaml:"size"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
}

// Objective is a per-use-case agent performance objective.
type Objective struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Color       string `yaml:"color"`
}

// DecisionProcess is the shared agent decision flow shown in the agent modal.
type DecisionProcess struct {
	Steps []string `yaml:"steps"`
}
