package logfilter

import (
	"reflect"
	"testing"

	"github.com/missionhq/missionctl/internal/mission"
)

func sampleLogs() []mission.IntegrationEntry {
	return []mission.IntegrationEntry{
		{Message: "subscribed", Type: mission.LogInfo, Agent: "Transaction Monitor", Workflow: "Stream Ingestion"},
		{Message: "flagged", Type: mission.LogWarning, Agent: "Risk Scoring Agent", Workflow: "Risk Scoring"},
		{Message: "blocked", Type: mission.LogSuccess, Agent: "Response Agent", Workflow: "Transaction Blocking"},
		{Message: "notified", Type: mission.LogSuccess, Agent: "Response Agent", Workflow: "Customer Notification"},
	}
}

func TestWildcardIdentity(t *testing.T) {
	logs := sampleLogs()

	got := Apply(logs, Criteria{Agent: All, Workflow: All, Type: All})
	if len(got) != len(logs) {
		t.Fatalf("wildcard should return all %d entries, got %d", len(logs), len(got))
	}
	// Identity: the very same slice, not a copy.
	if &got[0] != &logs[0] {
		t.Error("wildcard filter should return input unchanged")
	}

	// Empty selectors behave as wildcards too.
	got = Apply(logs, Criteria{})
	if &got[0] != &logs[0] {
		t.Error("empty criteria should behave like all-wildcard")
	}
}

func TestAndSemantics(t *testing.T) {
	logs := sampleLogs()

	got := Apply(logs, Criteria{Agent: "Response Agent", Workflow: All, Type: All})
	if len(got) != 2 {
		t.Fatalf("expected 2 Response Agent entries, got %d", len(got))
	}

	got = Apply(logs, Criteria{Agent: "Response Agent", Workflow: "Transaction Blocking", Type: All})
	if len(got) != 1 || got[0].Message != "blocked" {
		t.Fatalf("expected the blocked entry, got %+v", got)
	}

	got = Apply(logs, Criteria{Agent: "Response Agent", Workflow: "Transaction Blocking", Type: mission.LogWarning})
	if len(got) != 0 {
		t.Fatalf("conflicting selectors should match nothing, got %d", len(got))
	}

	got = Apply(logs, Criteria{Type: mission.LogSuccess})
	if len(got) != 2 {
		t.Fatalf("expected 2 success entries, got %d", len(got))
	}
}

func TestIdempotent(t *testing.T) {
	logs := sampleLogs()
	c := Criteria{Agent: "Response Agent"}

	first := Apply(logs, c)
	second := Apply(logs, c)
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated filtering with unchanged inputs should give the same output")
	}

	// Filtering an already-filtered result with the same criteria is stable.
	again := Apply(first, c)
	if !reflect.DeepEqual(first, again) {
		t.Error("filter should be idempotent over its own output")
	}
}

func TestEmptyInput(t *testing.T) {
	if got := Apply(nil, Criteria{Agent: "x"}); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}
