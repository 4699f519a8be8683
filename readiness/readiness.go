// Package readiness is the Readiness & Fallback component (C10). It
// computes a debate's overall state from its member agents' individual
// states, generalizing health.Combine's priority rule (unhealthy >
// degraded > healthy) to the orchestration core's three-state debate
// model (blocked > degraded > ready), and decides whether a blocked
// debate must fall back to the Semantic Flow.
package readiness

import (
	"fmt"

	"github.com/graphmind/orchestrator/agentpool"
)

// Summary is the ReadinessSummary data-model entity from SPEC_FULL.md §3.
type Summary struct {
	DebateState   string   `json:"debate_state"` // ready | degraded | blocked
	ReadyDBs      []string `json:"ready_dbs"`
	DegradedDBs   []string `json:"degraded_dbs"`
	BlockedDBs    []string `json:"blocked_dbs"`
	Reason        string   `json:"reason"`
}

// Combine classifies a debate's readiness from the per-db states
// tracked by the Agent Pool, applying blocked > degraded > ready
// exactly as health.Combine applies unhealthy > degraded > healthy.
func Combine(states map[string]agentpool.State) Summary {
	s := Summary{}
	for db, st := range states {
		switch st {
		case agentpool.StateReady:
			s.ReadyDBs = append(s.ReadyDBs, db)
		case agentpool.StateDegraded:
			s.DegradedDBs = append(s.DegradedDBs, db)
		case agentpool.StateBlocked:
			s.BlockedDBs = append(s.BlockedDBs, db)
		}
	}

	switch {
	case len(s.ReadyDBs) == 0 && len(s.DegradedDBs) == 0:
		s.DebateState = "blocked"
		s.Reason = "no ready or degraded agents available"
	case len(s.BlockedDBs) > 0 || len(s.DegradedDBs) > 0:
		s.DebateState = "degraded"
		s.Reason = fmt.Sprintf("%d agent(s) unavailable", len(s.BlockedDBs)+len(s.DegradedDBs))
	default:
		s.DebateState = "ready"
	}
	return s
}

// ShouldFallbackToSemantic reports whether a debate in this state must
// redirect to the Semantic Flow instead of running, per the fallback
// rule in SPEC_FULL.md §4.10.
func (s Summary) ShouldFallbackToSemantic() bool {
	return s.DebateState == "blocked"
}
