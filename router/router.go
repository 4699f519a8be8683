// Package router is the Router (C7): a deterministic classifier that
// maps a question to one of {lpg, rdf, hybrid}. The cascade is
// expressed as an ordered list of CEL boolean expressions evaluated
// against precomputed question features, repurposing cel-go — already
// a direct dependency of the teacher SDK for policy evaluation — for a
// second, Router-specific use as a data-driven rule set.
package router

import (
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/ref"

	"github.com/graphmind/orchestrator/orcherr"
)

// Route is one of the three dispatch targets a question can classify to.
type Route string

const (
	RouteLPG    Route = "lpg"
	RouteRDF    Route = "rdf"
	RouteHybrid Route = "hybrid"
)

// Features are precomputed, CEL-visible signals extracted from a
// question, so the classifier cascade never touches raw text directly.
type Features struct {
	HasTypeHierarchyKeyword bool
	HasEntityReference      bool
	HasCountOrAttributeKeyword bool
	HasOntologyKeyword      bool
}

func (f Features) asActivation() map[string]any {
	return map[string]any{
		"has_type_hierarchy":    f.HasTypeHierarchyKeyword,
		"has_entity_reference":  f.HasEntityReference,
		"has_count_or_attr":     f.HasCountOrAttributeKeyword,
		"has_ontology_keyword":  f.HasOntologyKeyword,
	}
}

// rule is one cascade entry: the first whose expression evaluates true
// wins.
type rule struct {
	expr  string
	route Route
	prg   cel.Program
}

// Router evaluates the CEL cascade, falling back to hybrid when nothing
// matches or the result is ambiguous.
type Router struct {
	env   *cel.Env
	rules []rule
	margin float64
}

var typeHierarchyKeywords = []string{"type of", "kind of", "subclass", "subtype", "category", "is-a", "taxonomy"}
var ontologyKeywords = []string{"ontology", "rdf", "triple", "sparql", "class hierarchy"}
var countAttrKeywords = []string{"how many", "count", "average", "sum", "total", "attribute", "property value"}

// ExtractFeatures derives CEL-visible features from free text. This is
// the only place question text is inspected; everything downstream
// operates on the boolean feature set.
func ExtractFeatures(question string) Features {
	lower := strings.ToLower(question)
	return Features{
		HasTypeHierarchyKeyword:    containsAny(lower, typeHierarchyKeywords),
		HasOntologyKeyword:         containsAny(lower, ontologyKeywords),
		HasCountOrAttributeKeyword: containsAny(lower, countAttrKeywords),
		HasEntityReference:         len(ExtractCapitalizedTokens(question)) > 0,
	}
}

// ExtractCapitalizedTokens is a minimal stand-in entity-reference signal:
// any capitalized token not at sentence-start position suggests a named
// entity reference.
func ExtractCapitalizedTokens(question string) []string {
	var out []string
	for i, tok := range strings.Fields(question) {
		if i == 0 {
			continue
		}
		if len(tok) > 0 && tok[0] >= 'A' && tok[0] <= 'Z' {
			out = append(out, tok)
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// New compiles the default cascade:
//  1. ontology/RDF vocabulary present and no concrete entity reference -> rdf
//  2. type-hierarchy question with an entity reference -> hybrid
//  3. count/attribute question over a named entity -> lpg
//  4. otherwise -> hybrid (handled by the zero-match fallback)
func New(margin float64) (*Router, error) {
	env, err := cel.NewEnv(
		cel.Variable("has_type_hierarchy", cel.BoolType),
		cel.Variable("has_entity_reference", cel.BoolType),
		cel.Variable("has_count_or_attr", cel.BoolType),
		cel.Variable("has_ontology_keyword", cel.BoolType),
	)
	if err != nil {
		return nil, orcherr.Wrap(err, orcherr.CodeInternal, "router: failed to build CEL environment")
	}

	defs := []struct {
		expr  string
		route Route
	}{
		{"has_ontology_keyword && !has_entity_reference", RouteRDF},
		{"has_type_hierarchy && has_entity_reference", RouteHybrid},
		{"has_count_or_attr && has_entity_reference", RouteLPG},
	}

	r := &Router{env: env, margin: margin}
	for _, d := range defs {
		ast, issues := env.Compile(d.expr)
		if issues != nil && issues.Err() != nil {
			return nil, orcherr.Wrap(issues.Err(), orcherr.CodeInternal, "router: invalid cascade expression: "+d.expr)
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, orcherr.Wrap(err, orcherr.CodeInternal, "router: failed to build program for: "+d.expr)
		}
		r.rules = append(r.rules, rule{expr: d.expr, route: d.route, prg: prg})
	}
	return r, nil
}

// Classify evaluates the cascade in order and returns the first
// matching route, falling back to hybrid when no rule fires.
func (r *Router) Classify(features Features) (Route, error) {
	activation := features.asActivation()
	for _, rl := range r.rules {
		out, _, err := rl.prg.Eval(activation)
		if err != nil {
			return "", orcherr.Wrap(err, orcherr.CodeInternal, "router: evaluation failed for: "+rl.expr)
		}
		if boolValue(out) {
			return rl.route, nil
		}
	}
	return RouteHybrid, nil
}

func boolValue(v ref.Val) bool {
	b, ok := v.Value().(bool)
	return ok && b
}
