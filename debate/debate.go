// Package debate is the Debate Orchestrator (C9): parallel fan-out of a
// question across every ready/degraded agent, bounded to a configured
// concurrency cap, with per-task timeout, cooperative cancellation, and
// a final supervisor synthesis pass. The fan-out/collect/cancel
// mechanics are grounded on the tarsy SubAgentRunner pattern (a buffered
// result channel sized to the concurrency cap, an atomic pending
// counter, slot reservation to avoid a TOCTOU race on the cap, and
// context.WithTimeout derived from the request's parent context per
// worker) — enrichment material from the broader example pack, since
// the teacher SDK itself has no equivalent fan-out primitive.
package debate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/graphmind/orchestrator/agentpool"
	"github.com/graphmind/orchestrator/orcherr"
	"github.com/graphmind/orchestrator/runtime"
	"github.com/graphmind/orchestrator/sharedmem"
	"github.com/graphmind/orchestrator/traceemit"
)

// WorkerStatus classifies how an individual debate worker finished.
type WorkerStatus string

const (
	StatusOK        WorkerStatus = "ok"
	StatusTimeout   WorkerStatus = "timeout"
	StatusCancelled WorkerStatus = "cancelled"
	StatusFailed    WorkerStatus = "failed"
)

// WorkerResult is one agent's contribution to the debate.
type WorkerResult struct {
	DB     string
	Status WorkerStatus
	Text   string
	Usage  runtime.Outcome
	Err    error
	NodeID string
}

// Orchestrator runs a bounded fan-out debate across a set of agents.
type Orchestrator struct {
	pool         *agentpool.Pool
	parallelism  int
	agentTimeout time.Duration
}

// New builds an Orchestrator capped at parallelism concurrent workers,
// each bounded by agentTimeout.
func New(pool *agentpool.Pool, parallelism int, agentTimeout time.Duration) *Orchestrator {
	if parallelism <= 0 {
		parallelism = 1
	}
	return &Orchestrator{pool: pool, parallelism: parallelism, agentTimeout: agentTimeout}
}

// Run dispatches query to every db in dbs, bounded to o.parallelism
// concurrent workers. Each dispatched worker opens a FAN_OUT_CHILD trace
// step parented under parentID (the supervisor's FANOUT node) and closes
// it with its own outcome, so the trace DAG carries one child per worker
// regardless of completion order. It blocks until every worker has
// either produced a result or been cancelled via ctx, then returns every
// WorkerResult in completion order (not dispatch order).
func (o *Orchestrator) Run(ctx context.Context, query string, dbs []string, shared *sharedmem.SharedMemory, emitter *traceemit.Emitter, parentID string, now int64) []WorkerResult {
	results := make(chan WorkerResult, len(dbs))
	sem := make(chan struct{}, o.parallelism)
	var pending int64
	var wg sync.WaitGroup

	for _, db := range dbs {
		db := db
		_, step := emitter.Step(ctx, parentID, "FAN_OUT_CHILD", db, now)
		wg.Add(1)
		atomic.AddInt64(&pending, 1)

		go func() {
			defer wg.Done()
			defer atomic.AddInt64(&pending, -1)

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				r := WorkerResult{DB: db, Status: StatusCancelled, Err: ctx.Err(), NodeID: step.NodeID()}
				step.End(now, "error", map[string]any{"status": string(StatusCancelled), "error": ctx.Err().Error()})
				results <- r
				return
			}

			r := o.runOne(ctx, db, query, shared)
			r.NodeID = step.NodeID()
			status := "ok"
			detail := map[string]any{"status": string(r.Status)}
			if r.Status != StatusOK {
				status = "error"
				if r.Err != nil {
					detail["error"] = r.Err.Error()
				}
			}
			step.End(now, status, detail)
			results <- r
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var out []WorkerResult
	for r := range results {
		out = append(out, r)
	}
	return out
}

// runOne executes a single agent's debate turn bounded by its own
// context.WithTimeout derived from the parent request context — never
// from a sibling worker's context, so one slow agent cannot shorten
// another's budget.
func (o *Orchestrator) runOne(parentCtx context.Context, db, query string, shared *sharedmem.SharedMemory) WorkerResult {
	agent := o.pool.Get(db)
	if agent == nil {
		agent = o.pool.Provision(db)
	}

	ctx, cancel := context.WithTimeout(parentCtx, o.agentTimeout)
	defer cancel()

	outcome, err := agent.Run(ctx, query, shared)
	if err != nil {
		status := classifyErr(ctx, parentCtx)
		if status == StatusTimeout {
			err = orcherr.Wrap(err, orcherr.CodeTimeout, "agent timed out")
		}
		return WorkerResult{DB: db, Status: status, Err: err}
	}
	return WorkerResult{DB: db, Status: StatusOK, Text: outcome.Text, Usage: outcome}
}

// classifyErr maps a failed worker's context state to a WorkerStatus: its
// own per-worker deadline firing is a timeout, the shared parent request
// context firing is a cancellation, anything else is a plain failure.
func classifyErr(ctx, parentCtx context.Context) WorkerStatus {
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		return StatusTimeout
	case parentCtx.Err() != nil:
		return StatusCancelled
	default:
		return StatusFailed
	}
}
