// Package semanticflow is the Semantic Flow (C8): Resolve -> Route ->
// Specialist -> Answer, emitting a linear RESOLVE -> ROUTE -> SPECIALIST
// -> ANSWER trace chain. The Specialist stage branches on the Router's
// decision: the LPG specialist runs a parameterized Cypher traversal
// pinned to the Resolver's candidate node IDs, while the RDF specialist
// walks the database's class/relationship-type hierarchy via
// GetSchemaSnapshot. Hybrid routes run both sequentially per db,
// matching the teacher's own single-threaded tool-use loop (see
// DESIGN.md Open Question #1).
package semanticflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/graphmind/orchestrator/agentpool"
	"github.com/graphmind/orchestrator/resolver"
	"github.com/graphmind/orchestrator/router"
	"github.com/graphmind/orchestrator/sharedmem"
	"github.com/graphmind/orchestrator/traceemit"
)

// SemanticContext is returned alongside the final answer so a caller can
// see which entities the question resolved to, grouped by the mention
// that produced them, and which route was chosen.
type SemanticContext struct {
	Candidates []resolver.CandidateEntity
	Matches    map[string][]resolver.CandidateEntity
	Route      router.Route
}

// Result is the Semantic Flow's output.
type Result struct {
	Answer  string
	Context SemanticContext
}

// Flow composes the Resolver, Router, and Agent Pool into one pipeline.
type Flow struct {
	resolver *resolver.Resolver
	router   *router.Router
	pool     *agentpool.Pool
}

// New builds a Flow.
func New(res *resolver.Resolver, rt *router.Router, pool *agentpool.Pool) *Flow {
	return &Flow{resolver: res, router: rt, pool: pool}
}

// Run executes the full pipeline for question against dbs, threading a
// trace step through each stage via emitter.
func (f *Flow) Run(ctx context.Context, question string, dbs []string, overrides []resolver.Override, topK int, shared *sharedmem.SharedMemory, emitter *traceemit.Emitter, now int64) (Result, error) {
	resolveCtx, resolveStep := emitter.Step(ctx, "", "RESOLVE", question, now)
	matches := make(map[string][]resolver.CandidateEntity)
	var allCandidates []resolver.CandidateEntity
	for _, mention := range resolver.ExtractMentions(question) {
		candidates, err := f.resolver.Resolve(resolveCtx, mention, dbs, overrides, topK)
		if err != nil {
			resolveStep.End(now, "error", map[string]any{"error": err.Error()})
			return Result{}, err
		}
		matches[mention] = candidates
		allCandidates = append(allCandidates, candidates...)
	}
	resolveStep.End(now, "ok", map[string]any{"candidate_count": len(allCandidates)})

	routeCtx, routeStep := emitter.Step(ctx, resolveStep.NodeID(), "ROUTE", question, now)
	features := router.ExtractFeatures(question)
	route, err := f.router.Classify(features)
	if err != nil {
		routeStep.End(now, "error", map[string]any{"error": err.Error()})
		return Result{}, err
	}
	routeStep.End(now, "ok", map[string]any{"route": string(route)})

	specialistCtx, specialistStep := emitter.Step(routeCtx, routeStep.NodeID(), "SPECIALIST", string(route), now)
	var answers []string
	dbsToRun := dbsForRoute(route, dbs, allCandidates)
	for _, db := range dbsToRun {
		answer, err := f.runSpecialist(specialistCtx, db, question, route, allCandidates, shared)
		if err != nil {
			specialistStep.End(now, "error", map[string]any{"db": db, "error": err.Error()})
			return Result{}, err
		}
		answers = append(answers, answer)
	}
	specialistStep.End(now, "ok", map[string]any{"dbs": dbsToRun})

	_, answerStep := emitter.Step(specialistCtx, specialistStep.NodeID(), "ANSWER", "synthesize", now)
	answer := strings.Join(answers, "\n\n")
	answerStep.End(now, "ok", map[string]any{"length": len(answer)})

	return Result{
		Answer: answer,
		Context: SemanticContext{
			Candidates: allCandidates,
			Matches:    matches,
			Route:      route,
		},
	}, nil
}

// runSpecialist dispatches to the LPG specialist, the RDF specialist, or
// both in sequence for a hybrid route, grounding each in a distinct
// graph-access pattern before handing the result to the db's agent.
func (f *Flow) runSpecialist(ctx context.Context, db, question string, route router.Route, candidates []resolver.CandidateEntity, shared *sharedmem.SharedMemory) (string, error) {
	var sections []string
	switch route {
	case router.RouteLPG:
		section, err := f.lpgContext(ctx, db, candidates)
		if err != nil {
			return "", err
		}
		sections = append(sections, section)
	case router.RouteRDF:
		section, err := f.rdfContext(ctx, db)
		if err != nil {
			return "", err
		}
		sections = append(sections, section)
	case router.RouteHybrid:
		lpgSection, err := f.lpgContext(ctx, db, candidates)
		if err != nil {
			return "", err
		}
		rdfSection, err := f.rdfContext(ctx, db)
		if err != nil {
			return "", err
		}
		sections = append(sections, lpgSection, rdfSection)
	}

	prompt := question
	for _, s := range sections {
		if s != "" {
			prompt += "\n\n" + s
		}
	}

	agent := f.pool.Provision(db)
	outcome, err := agent.Run(ctx, prompt, shared)
	if err != nil {
		return "", err
	}
	return outcome.Text, nil
}

// lpgContext runs the LPG specialist: a parameterized Cypher traversal
// anchored on the Resolver's pinned candidate node IDs for db, one hop
// out in either direction. Returns "" (not an error) when nothing
// resolved into db, letting the specialist fall back to the agent's own
// judgment.
func (f *Flow) lpgContext(ctx context.Context, db string, candidates []resolver.CandidateEntity) (string, error) {
	var ids []string
	for _, c := range candidates {
		if c.DB == db && c.NodeID != "" {
			ids = append(ids, c.NodeID)
		}
	}
	if len(ids) == 0 {
		return "", nil
	}

	const stmt = `MATCH (n)-[r]-(m)
WHERE elementId(n) IN $ids
RETURN labels(n) AS from_labels, type(r) AS rel, labels(m) AS to_labels, properties(m) AS to_props
LIMIT 25`
	rows, err := f.pool.Gateway().RunCypher(ctx, db, stmt, map[string]any{"ids": ids})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Graph neighborhood around the resolved entities:\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "- %v -[%v]-> %v %v\n", row["from_labels"], row["rel"], row["to_labels"], row["to_props"])
	}
	return b.String(), nil
}

// rdfContext runs the RDF specialist: a class/relationship-type
// hierarchy walk over db's schema, standing in for an ontology lookup
// when the graph has no separate triple store.
func (f *Flow) rdfContext(ctx context.Context, db string) (string, error) {
	snap, err := f.pool.Gateway().GetSchemaSnapshot(ctx, db)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("Ontology overview:\n")
	fmt.Fprintf(&b, "Classes: %s\n", strings.Join(snap.Labels, ", "))
	fmt.Fprintf(&b, "Relations: %s\n", strings.Join(snap.RelationshipTypes, ", "))
	fmt.Fprintf(&b, "Attributes: %s\n", strings.Join(snap.PropertyKeys, ", "))
	return b.String(), nil
}

// dbsForRoute narrows the specialist fan-out per route: an RDF question
// is about the schema itself, so it always runs across every requested
// db regardless of entity resolution; LPG and hybrid questions narrow
// to the databases the resolved candidates actually touched, falling
// back to every requested db when nothing resolved.
func dbsForRoute(route router.Route, dbs []string, candidates []resolver.CandidateEntity) []string {
	if route == router.RouteRDF {
		return dbs
	}
	if len(candidates) == 0 {
		return dbs
	}
	seen := make(map[string]bool)
	var out []string
	for _, c := range candidates {
		if !seen[c.DB] {
			seen[c.DB] = true
			out = append(out, c.DB)
		}
	}
	return out
}
