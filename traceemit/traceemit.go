// Package traceemit is the Trace Emitter (C11): it produces the node/edge
// DAG metadata the UI renders (TraceStep with node_id/parent_id/
// parent_ids) and mirrors every step as an OpenTelemetry span nested
// under the request's root span, so the same topology is independently
// reconstructable from the observability sink.
package traceemit

import (
	"context"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel/trace"
)

// TraceStep is one node in the request's trace DAG.
type TraceStep struct {
	NodeID    string         `json:"node_id"`
	ParentID  string         `json:"parent_id,omitempty"`
	ParentIDs []string       `json:"parent_ids,omitempty"`
	Kind      string         `json:"kind"`
	Label     string         `json:"label"`
	StartedAt int64          `json:"started_at_unix_ms"`
	EndedAt   int64          `json:"ended_at_unix_ms,omitempty"`
	Status    string         `json:"status"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// Emitter accumulates TraceSteps for a single request and mirrors each
// one onto the request's OpenTelemetry span.
type Emitter struct {
	tracer trace.Tracer
	root   trace.Span

	mu    sync.Mutex
	steps []TraceStep
	seq   int
}

// New starts a root span named requestLabel and returns an Emitter bound
// to it. The returned context carries the root span for children to
// attach to.
func New(ctx context.Context, tracer trace.Tracer, requestLabel string) (context.Context, *Emitter) {
	ctx, span := tracer.Start(ctx, requestLabel)
	return ctx, &Emitter{tracer: tracer, root: span}
}

// Step opens a new trace step of kind/label, parented under parentID
// (empty for a root-level step), and returns a handle used to close it.
// now is the caller-supplied wall-clock timestamp in unix milliseconds —
// callers own the clock because this package must not call time.Now
// itself inside anything exercised from a workflow script; the HTTP
// surface that drives it in production supplies real timestamps.
func (e *Emitter) Step(ctx context.Context, parentID, kind, label string, now int64) (context.Context, *Handle) {
	e.mu.Lock()
	e.seq++
	nodeID := idFor(kind, e.seq)
	e.mu.Unlock()

	spanCtx, span := e.tracer.Start(ctx, kind+":"+label)

	step := TraceStep{
		NodeID:    nodeID,
		ParentID:  parentID,
		Kind:      kind,
		Label:     label,
		StartedAt: now,
		Status:    "running",
	}

	e.mu.Lock()
	e.steps = append(e.steps, step)
	idx := len(e.steps) - 1
	e.mu.Unlock()

	return spanCtx, &Handle{emitter: e, idx: idx, span: span, nodeID: nodeID}
}

// StepMulti is Step for a node with more than one parent (debate
// synthesis joining every worker's step).
func (e *Emitter) StepMulti(ctx context.Context, parentIDs []string, kind, label string, now int64) (context.Context, *Handle) {
	spanCtx, h := e.Step(ctx, "", kind, label, now)
	e.mu.Lock()
	e.steps[h.idx].ParentIDs = parentIDs
	e.mu.Unlock()
	return spanCtx, h
}

// Handle closes exactly one trace step.
type Handle struct {
	emitter *Emitter
	idx     int
	span    trace.Span
	nodeID  string
}

// NodeID returns the step's node_id, used as the parent_id of any
// downstream step.
func (h *Handle) NodeID() string { return h.nodeID }

// End closes the step with the given status ("ok" or "error") and
// optional detail, and ends the mirrored OTel span.
func (h *Handle) End(now int64, status string, detail map[string]any) {
	h.emitter.mu.Lock()
	h.emitter.steps[h.idx].EndedAt = now
	h.emitter.steps[h.idx].Status = status
	h.emitter.steps[h.idx].Detail = detail
	h.emitter.mu.Unlock()
	h.span.End()
}

// Steps returns every TraceStep recorded so far, in emission order.
func (e *Emitter) Steps() []TraceStep {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]TraceStep, len(e.steps))
	copy(out, e.steps)
	return out
}

// Finish closes the request's root span.
func (e *Emitter) Finish() {
	e.root.End()
}

func idFor(kind string, seq int) string {
	return kind + "-" + strconv.Itoa(seq)
}
