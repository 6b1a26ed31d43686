// Package logfilter narrows integration log entries by agent, workflow and
// event type. Filtering is a pure function over the slice; persistence-side
// filtering lives in the store and must agree with these semantics.
package logfilter

import "github.com/missionhq/missionctl/internal/mission"

// All matches every value for a selector.
const All = "all"

type Criteria struct {
	Agent    string `json:"agent"`
	Workflow string `json:"workflow"`
	Type     string `json:"event_type"`
}

func (c Criteria) wildcard() bool {
	return matchesAll(c.Agent) && matchesAll(c.Workflow) && matchesAll(c.Type)
}

func matchesAll(s string) bool {
	return s == "" || s == All
}

// Apply returns the entries matching every selector (logical AND). The
// all-wildcard case returns the input slice unchanged.
func Apply(entries []mission.IntegrationEntry, c Criteria) []mission.IntegrationEntry {
	if c.wildcard() {
		return entries
	}

	out := make([]mission.IntegrationEntry, 0, len(entries))
	for _, e := range entries {
		if !matchesAll(c.Agent) && e.Agent != c.Agent {
			continue
		}
		if !matchesAll(c.Workflow) && e.Workflow != c.Workflow {
			continue
		}
		if !matchesAll(c.Type) && e.Type != c.Type {
			continue
		}
		out = append(out, e)
	}
	return out
}
