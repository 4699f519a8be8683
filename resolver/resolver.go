// Package resolver is the Semantic Resolver (C6): Extract -> Resolve ->
// Rerank -> Deduplicate -> Overrides -> Confidence gate, turning a free-
// text question into a set of CandidateEntity matches per database. Its
// query shape is grounded on graphrag.Query/MissionScope (TopK/MaxHops/
// weight validation rules); fulltext retrieval is delegated to the Graph
// Gateway (C2).
package resolver

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/graphmind/orchestrator/graphgw"
)

// Source classifies how a CandidateEntity was found.
type Source string

const (
	SourceFulltext Source = "fulltext"
	SourceContains Source = "contains"
	SourceOverride Source = "override"
)

// CandidateEntity is one resolved match for an extracted mention,
// scored and (optionally) overridden per SPEC_FULL.md §3.
type CandidateEntity struct {
	QuestionEntity string
	DB             string
	NodeID         string
	DisplayName    string
	Labels         []string
	LexicalScore   float64
	FulltextScore  float64
	HintScore      float64
	Score          float64
	Source         Source
	IsConfident    bool
}

// Override pins a mention to a specific node, bypassing scoring.
type Override struct {
	Mention string
	DB      string
	NodeID  string
}

// Weights controls the resolver's scoring blend. Default values mirror
// SPEC_FULL.md §9: lexical 0.5, fulltext 0.4, hint 0.1.
type Weights struct {
	Lexical  float64
	Fulltext float64
	Hint     float64
}

// DefaultWeights returns the spec's default blend.
func DefaultWeights() Weights {
	return Weights{Lexical: 0.5, Fulltext: 0.4, Hint: 0.1}
}

// Validate checks the weights sum to ~1.0, mirroring graphrag.Query's
// own weight-sum validation rule.
func (w Weights) Validate() error {
	sum := w.Lexical + w.Fulltext + w.Hint
	if math.Abs(sum-1.0) > 1e-6 {
		return errWeightSum
	}
	return nil
}

var errWeightSum = &weightSumError{}

type weightSumError struct{}

func (*weightSumError) Error() string { return "resolver: weights must sum to 1.0" }

// Resolver extracts entity mentions from a question and resolves them
// against one or more databases' fulltext indexes.
type Resolver struct {
	gateway       *graphgw.Gateway
	fulltextIndex string
	weights       Weights
	dedupThreshold float64
	confidenceGap  float64
	hints          map[string][]string
}

// New builds a Resolver.
func New(gateway *graphgw.Gateway, fulltextIndex string, weights Weights, dedupThreshold, confidenceGap float64) *Resolver {
	return &Resolver{
		gateway:        gateway,
		fulltextIndex:  fulltextIndex,
		weights:        weights,
		dedupThreshold: dedupThreshold,
		confidenceGap:  confidenceGap,
	}
}

// SetHints installs the offline-supplied label hint set consulted by the
// reranker's label_hint_bonus term: question entity -> labels that, if a
// candidate carries one, earn the hint score component.
func (r *Resolver) SetHints(hints map[string][]string) {
	r.hints = hints
}

func (r *Resolver) hintScore(questionEntity string, labels []string) float64 {
	wanted, ok := r.hints[questionEntity]
	if !ok {
		return 0
	}
	for _, l := range labels {
		for _, w := range wanted {
			if l == w {
				return 1.0
			}
		}
	}
	return 0
}

// mentionPattern extracts capitalized-word runs and quoted phrases as
// candidate entity mentions — a lightweight, dependency-free stand-in
// for a full NER pass, adequate for the bounded graph-entity vocabulary
// this resolver matches against.
var mentionPattern = regexp.MustCompile(`"([^"]+)"|\b([A-Z][a-zA-Z0-9_-]*(?:\s+[A-Z][a-zA-Z0-9_-]*)*)\b`)

// ExtractMentions pulls candidate entity mentions out of free text.
func ExtractMentions(question string) []string {
	matches := mentionPattern.FindAllStringSubmatch(question, -1)
	seen := make(map[string]bool)
	var out []string
	for _, m := range matches {
		mention := m[1]
		if mention == "" {
			mention = m[2]
		}
		mention = strings.TrimSpace(mention)
		if mention == "" || seen[mention] {
			continue
		}
		seen[mention] = true
		out = append(out, mention)
	}
	return out
}

// Resolve runs the full six-step protocol for one mention across the
// given databases, applying any overrides first.
func (r *Resolver) Resolve(ctx context.Context, mention string, dbs []string, overrides []Override, topK int) ([]CandidateEntity, error) {
	for _, ov := range overrides {
		if ov.Mention == mention {
			return []CandidateEntity{{
				QuestionEntity: mention,
				DB:             ov.DB, NodeID: ov.NodeID, DisplayName: mention,
				Score: 1.0, Source: SourceOverride, IsConfident: true,
			}}, nil
		}
	}

	var candidates []CandidateEntity
	for _, db := range dbs {
		dbCandidates, err := r.resolveInDB(ctx, mention, db, topK)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, dbCandidates...)
	}

	candidates = r.deduplicate(candidates)
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	r.gate(candidates)

	return candidates, nil
}

// resolveInDB resolves mention against a single database: fulltext
// first (step 2a), falling back to a CONTAINS scan over name-like
// properties when the fulltext index is absent or returns nothing.
func (r *Resolver) resolveInDB(ctx context.Context, mention, db string, topK int) ([]CandidateEntity, error) {
	hits, err := r.gateway.FulltextSearch(ctx, db, r.fulltextIndex, mention, topK)
	if err == nil && len(hits) > 0 {
		out := make([]CandidateEntity, 0, len(hits))
		for _, h := range hits {
			out = append(out, r.scoreCandidate(mention, db, h.NodeID, displayNameOf(h.Node), h.Labels, h.Score, SourceFulltext))
		}
		return out, nil
	}

	rows, cerr := r.containsSearch(ctx, db, mention, topK)
	if cerr != nil {
		if err != nil {
			return nil, err
		}
		return nil, cerr
	}
	out := make([]CandidateEntity, 0, len(rows))
	for _, row := range rows {
		labels := stringsOf(row["labels"])
		out = append(out, r.scoreCandidate(mention, db, fmt.Sprintf("%v", row["id"]), displayNameOf(propsOf(row["props"])), labels, 0, SourceContains))
	}
	return out, nil
}

// containsSearch falls back to a parameterized CONTAINS scan when a
// database has no fulltext index to query, per SPEC_FULL.md §4.6 step 2a.
// It scans every node rather than a single label, so it is issued
// directly through the Graph Gateway's read-only Cypher path rather than
// graphrag/query's label-scoped MATCH builder.
func (r *Resolver) containsSearch(ctx context.Context, db, term string, limit int) ([]graphgw.Record, error) {
	const stmt = `MATCH (n)
WHERE toLower(n.name) CONTAINS toLower($term)
   OR toLower(n.display_name) CONTAINS toLower($term)
   OR toLower(n.title) CONTAINS toLower($term)
RETURN elementId(n) AS id, labels(n) AS labels, properties(n) AS props
LIMIT $limit`
	return r.gateway.RunCypher(ctx, db, stmt, map[string]any{"term": term, "limit": limit})
}

func (r *Resolver) scoreCandidate(mention, db, nodeID, displayName string, labels []string, fulltextScore float64, source Source) CandidateEntity {
	c := CandidateEntity{
		QuestionEntity: mention,
		DB:             db,
		NodeID:         nodeID,
		DisplayName:    displayName,
		Labels:         labels,
		LexicalScore:   lexicalSimilarity(mention, displayName),
		FulltextScore:  fulltextScore,
		HintScore:      r.hintScore(mention, labels),
		Source:         source,
	}
	c.Score = r.weights.Lexical*c.LexicalScore +
		r.weights.Fulltext*normalizeFulltext(c.FulltextScore) +
		r.weights.Hint*c.HintScore
	return c
}

// deduplicate merges candidates across databases by (display_name,
// labels), keeping the highest-scoring instance, per SPEC_FULL.md §4.6
// step 4.
func (r *Resolver) deduplicate(candidates []CandidateEntity) []CandidateEntity {
	var out []CandidateEntity
	for _, c := range candidates {
		merged := false
		for i, existing := range out {
			if sameEntity(existing.DisplayName, c.DisplayName, r.dedupThreshold) && sameLabels(existing.Labels, c.Labels) {
				if c.Score > existing.Score {
					out[i] = c
				}
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, c)
		}
	}
	return out
}

// gate applies the confidence-gap rule to the (already sorted,
// descending-score) candidate list in place: the top candidate is
// flagged is_confident when it leads the runner-up by at least
// confidenceGap, when it is the only candidate, or when it came from an
// override (already set by Resolve). No candidate is ever dropped.
func (r *Resolver) gate(candidates []CandidateEntity) {
	if len(candidates) == 0 {
		return
	}
	if len(candidates) == 1 || candidates[0].Source == SourceOverride {
		candidates[0].IsConfident = true
		return
	}
	candidates[0].IsConfident = candidates[0].Score-candidates[1].Score >= r.confidenceGap
}

func displayNameOf(node graphgw.Record) string {
	for _, key := range []string{"name", "display_name", "title", "label"} {
		if v, ok := node[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// propsOf coerces a CONTAINS-scan row's properties(n) value into a
// Record, so displayNameOf can be reused on both fulltext hits and
// CONTAINS fallback rows.
func propsOf(v any) graphgw.Record {
	if m, ok := v.(map[string]any); ok {
		return graphgw.Record(m)
	}
	return graphgw.Record{}
}

// stringsOf coerces a driver-returned []any (e.g. labels(n)) into
// []string, skipping non-string elements.
func stringsOf(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// sameLabels reports whether a and b share at least one label, or are
// both empty (unlabeled nodes still dedup by display name alone).
func sameLabels(a, b []string) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func normalizeFulltext(score float64) float64 {
	// Lucene fulltext scores are unbounded; squash into (0,1] so the
	// weighted blend stays comparable to the lexical component.
	return score / (score + 1.0)
}

func lexicalSimilarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1.0
	}
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for t := range setA {
		if setB[t] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func sameEntity(a, b string, threshold float64) bool {
	if strings.EqualFold(a, b) {
		return true
	}
	return lexicalSimilarity(a, b) >= threshold
}

func tokenSet(s string) map[string]bool {
	fields := strings.Fields(s)
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
