package traceemit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	noop "go.opentelemetry.io/otel/trace/noop"

	"github.com/graphmind/orchestrator/traceemit"
)

func TestStepRecordsParentage(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	ctx, emitter := traceemit.New(context.Background(), tracer, "request")
	defer emitter.Finish()

	_, resolveStep := emitter.Step(ctx, "", "RESOLVE", "question", 1000)
	resolveStep.End(1010, "ok", map[string]any{"candidate_count": 2})

	_, routeStep := emitter.Step(ctx, resolveStep.NodeID(), "ROUTE", "question", 1010)
	routeStep.End(1020, "ok", nil)

	steps := emitter.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, "", steps[0].ParentID)
	assert.Equal(t, resolveStep.NodeID(), steps[1].ParentID)
	assert.Equal(t, "ok", steps[0].Status)
	assert.Equal(t, int64(1010), steps[0].EndedAt)
}

func TestStepMultiRecordsAllParents(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	ctx, emitter := traceemit.New(context.Background(), tracer, "request")
	defer emitter.Finish()

	_, a := emitter.Step(ctx, "", "DEBATE_WORKER", "db-a", 1000)
	a.End(1005, "ok", nil)
	_, b := emitter.Step(ctx, "", "DEBATE_WORKER", "db-b", 1000)
	b.End(1005, "ok", nil)

	_, synth := emitter.StepMulti(ctx, []string{a.NodeID(), b.NodeID()}, "SYNTHESIZE", "join", 1010)
	synth.End(1020, "ok", nil)

	steps := emitter.Steps()
	last := steps[len(steps)-1]
	assert.ElementsMatch(t, []string{a.NodeID(), b.NodeID()}, last.ParentIDs)
}
