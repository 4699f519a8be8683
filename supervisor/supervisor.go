// Package supervisor is the Request Supervisor (C12): the single entry
// point that wires a request-scoped Shared Memory, selects semantic or
// debate mode, and dispatches to the Semantic Flow (C8) or Debate
// Orchestrator (C9) respectively, applying the request-wide timeout and
// readiness-based fallback along the way. Its wiring style is grounded
// on gibson.go/framework.go's top-level constructor pattern, generalized
// from SDK-framework construction to per-request orchestration.
package supervisor

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/graphmind/orchestrator/agentpool"
	"github.com/graphmind/orchestrator/debate"
	"github.com/graphmind/orchestrator/llm"
	"github.com/graphmind/orchestrator/readiness"
	"github.com/graphmind/orchestrator/resolver"
	"github.com/graphmind/orchestrator/semanticflow"
	"github.com/graphmind/orchestrator/sharedmem"
	"github.com/graphmind/orchestrator/traceemit"
)

// RunResult is the RunResult data-model entity from SPEC_FULL.md §3.
type RunResult struct {
	Answer        string                 `json:"answer"`
	Mode          string                 `json:"mode"` // semantic | debate
	DebateState   string                 `json:"debate_state,omitempty"`
	FallbackFrom  string                 `json:"fallback_from,omitempty"`
	AgentStatuses []debate.WorkerResult  `json:"agent_statuses,omitempty"`
	TraceSteps    []traceemit.TraceStep  `json:"trace_steps"`
	TokenUsage    llm.Snapshot           `json:"token_usage"`
}

// Supervisor composes every component needed to answer one request.
type Supervisor struct {
	pool      *agentpool.Pool
	flow      *semanticflow.Flow
	debate    *debate.Orchestrator
	tracer    trace.Tracer
	sharedCap int

	requestTimeout time.Duration
}

// New builds a Supervisor.
func New(pool *agentpool.Pool, flow *semanticflow.Flow, deb *debate.Orchestrator, tracer trace.Tracer, sharedCap int, requestTimeout time.Duration) *Supervisor {
	return &Supervisor{
		pool:           pool,
		flow:           flow,
		debate:         deb,
		tracer:         tracer,
		sharedCap:      sharedCap,
		requestTimeout: requestTimeout,
	}
}

// Pool exposes the Agent Pool backing this Supervisor, for ambient
// surfaces (the HTTP layer's /agents and /health endpoints) that need to
// read pool/gateway state directly rather than through a full run.
func (s *Supervisor) Pool() *agentpool.Pool {
	return s.pool
}

// RunAgent drives a single db-bound agent directly, bypassing both the
// Semantic Flow's resolve/route stages and the Debate Orchestrator's
// fan-out — the legacy single-route execution path from SPEC_FULL.md
// §6.1's POST /run_agent.
func (s *Supervisor) RunAgent(ctx context.Context, question, db string, now int64) (RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	shared, err := sharedmem.New(s.sharedCap)
	if err != nil {
		return RunResult{}, err
	}

	ctx, emitter := traceemit.New(ctx, s.tracer, "run_agent")
	defer emitter.Finish()

	_, step := emitter.Step(ctx, "", "AGENT", question, now)
	agent := s.pool.Provision(db)
	outcome, err := agent.Run(ctx, question, shared)
	if err != nil {
		step.End(now, "error", map[string]any{"db": db, "error": err.Error()})
		return RunResult{}, err
	}
	step.End(now, "ok", map[string]any{"db": db})

	tracker := llm.NewTokenTracker()
	tracker.Add(db, outcome.Usage)

	return RunResult{
		Answer:     outcome.Text,
		Mode:       "agent",
		TraceSteps: emitter.Steps(),
		TokenUsage: tracker.Snapshot(),
	}, nil
}

// RunSemantic drives the Semantic Flow for one request.
func (s *Supervisor) RunSemantic(ctx context.Context, question string, dbs []string, overrides []resolver.Override, topK int, now int64) (RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	shared, err := sharedmem.New(s.sharedCap)
	if err != nil {
		return RunResult{}, err
	}

	ctx, emitter := traceemit.New(ctx, s.tracer, "run_agent_semantic")
	defer emitter.Finish()

	result, err := s.flow.Run(ctx, question, dbs, overrides, topK, shared, emitter, now)
	if err != nil {
		return RunResult{}, err
	}

	return RunResult{
		Answer:     result.Answer,
		Mode:       "semantic",
		TraceSteps: emitter.Steps(),
	}, nil
}

// RunDebate drives the Debate Orchestrator for one request, falling
// back to the Semantic Flow if the computed readiness summary is
// blocked.
func (s *Supervisor) RunDebate(ctx context.Context, question string, dbs []string, now int64) (RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	shared, err := sharedmem.New(s.sharedCap)
	if err != nil {
		return RunResult{}, err
	}

	ctx, emitter := traceemit.New(ctx, s.tracer, "run_debate")
	defer emitter.Finish()

	states := make(map[string]agentpool.State)
	for _, db := range dbs {
		s.pool.Provision(db)
	}
	for db, st := range s.pool.Readiness() {
		states[db] = st
	}
	summary := readiness.Combine(states)

	if summary.ShouldFallbackToSemantic() {
		result, err := s.flow.Run(ctx, question, dbs, nil, 10, shared, emitter, now)
		if err != nil {
			return RunResult{}, err
		}
		return RunResult{
			Answer:       result.Answer,
			Mode:         "semantic",
			FallbackFrom: "debate",
			DebateState:  summary.DebateState,
			TraceSteps:   emitter.Steps(),
		}, nil
	}

	orchCtx, orchStep := emitter.Step(ctx, "", "ORCHESTRATION", question, now)
	fanoutCtx, fanoutStep := emitter.Step(orchCtx, orchStep.NodeID(), "FANOUT", question, now)
	workers := s.debate.Run(fanoutCtx, question, dbs, shared, emitter, fanoutStep.NodeID(), now)
	fanoutStep.End(now, "ok", map[string]any{"worker_count": len(workers)})

	var successfulChildren []string
	for _, w := range workers {
		if w.Status == debate.StatusOK {
			successfulChildren = append(successfulChildren, w.NodeID)
		}
	}
	collectCtx, collectStep := emitter.StepMulti(orchCtx, successfulChildren, "COLLECT", "collect worker results", now)
	collectStep.End(now, "ok", map[string]any{"collected": len(successfulChildren), "dispatched": len(workers)})

	_, synthStep := emitter.Step(collectCtx, collectStep.NodeID(), "SYNTHESIS", "supervisor synthesis", now)
	answer := synthesize(workers)
	synthStep.End(now, "ok", map[string]any{"contributing_agents": len(successfulChildren)})

	orchStep.End(now, "ok", map[string]any{"worker_count": len(workers)})

	tracker := llm.NewTokenTracker()
	for _, w := range workers {
		tracker.Add(w.DB, w.Usage.Usage)
	}

	return RunResult{
		Answer:        answer,
		Mode:          "debate",
		DebateState:   summary.DebateState,
		AgentStatuses: workers,
		TraceSteps:    emitter.Steps(),
		TokenUsage:    tracker.Snapshot(),
	}, nil
}

// synthesize concatenates every successful worker's text into one
// answer. A real deployment would route this through another model
// call; the contract here only requires that every ok result is
// represented in the final answer.
func synthesize(workers []debate.WorkerResult) string {
	answer := ""
	for _, w := range workers {
		if w.Status != debate.StatusOK {
			continue
		}
		if answer != "" {
			answer += "\n\n"
		}
		answer += w.Text
	}
	return answer
}
