// Package simulate synthesizes plausible-looking operational activity for
// the dashboard. Nothing in here measures anything real: figures are drawn
// from trig functions of wall-clock time and pseudo-randomness so the demo
// never sits frozen.
package simulate

import (
	"hash/fnv"
	"math"
	"time"
)

// Generator produces the decorative per-agent CPU and memory figures shown
// on the agent canvas. Each agent gets a stable phase offset derived from
// its id so the curves drift independently.
type Generator struct{}

// AgentLoad returns simulated CPU and memory percentages for agentID at
// now, both clamped to [0,100].
func (Generator) AgentLoad(agentID string, now time.Time) (cpu, mem float64) {
	phase := phaseOf(agentID)
	t := float64(now.UnixMilli()) / 1000.0

	cpu = 38 + 24*math.Sin(t/9+phase)
	mem = 52 + 18*math.Cos(t/13+phase*1.7)
	return clamp(cpu), clamp(mem)
}

func phaseOf(id string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return float64(h.Sum32()%628) / 100.0 // 0 .. 2π
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
