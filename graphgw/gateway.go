// Package graphgw is the Graph Gateway (C2): the only component that
// speaks Cypher to a live graph database. Clause assembly is grounded on
// graphrag/query's parameterized builder (BuildMatch/BuildWhere/
// BuildReturn/BuildTraversal); the execution backend is grounded on the
// go-digitaltwin example's neo4j.DriverWithContext wrapper, since the
// teacher SDK itself only ever builds Cypher strings and never executes
// them against a live driver.
package graphgw

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/graphmind/orchestrator/graphrag/query"
	"github.com/graphmind/orchestrator/idregistry"
	"github.com/graphmind/orchestrator/orcherr"
)

// forbiddenKeywords guards RunCypher against write operations; the
// gateway is read-only by contract (invariant from SPEC_FULL.md §4.2).
var forbiddenKeywords = []string{
	"CREATE", "MERGE", "DELETE", "SET", "REMOVE", "DROP", "DETACH",
	"CALL DB.INDEX.FULLTEXT.CREATENODEINDEX", // only EnsureFulltextIndex may do this
}

// Record is a single row returned by RunCypher, keyed by the Cypher
// RETURN aliases.
type Record map[string]any

// SchemaSnapshot summarizes the labels, relationship types, and property
// keys visible in a database, used by the Router and Resolver to shape
// queries without a round trip per call.
type SchemaSnapshot struct {
	Labels            []string
	RelationshipTypes []string
	PropertyKeys      []string
}

// Gateway executes read-only Cypher against a neo4j-compatible backend.
type Gateway struct {
	driver        neo4j.DriverWithContext
	graphTimeout  time.Duration
	identifiers   *idregistry.Registry
}

// New wraps an already-open neo4j driver. The driver is shared across
// requests; each call opens and closes its own session.
func New(driver neo4j.DriverWithContext, identifiers *idregistry.Registry, graphTimeout time.Duration) *Gateway {
	return &Gateway{driver: driver, identifiers: identifiers, graphTimeout: graphTimeout}
}

// Dial opens a neo4j driver from a URI and basic-auth credentials, per
// SPEC_FULL.md §6.2.
func Dial(uri, user, password string) (neo4j.DriverWithContext, error) {
	return neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
}

func guardReadOnly(cypher string) error {
	upper := strings.ToUpper(cypher)
	for _, kw := range forbiddenKeywords {
		if strings.Contains(upper, kw) {
			return orcherr.New(orcherr.CodePolicyDenied, "write operation rejected by read-only gateway").
				WithComponent("graphgw").WithDetails(map[string]any{"keyword": kw})
		}
	}
	return nil
}

// RunCypher executes a parameterized, read-only Cypher statement against
// db and returns every record. db must already be registered with the
// Identifier Registry.
func (g *Gateway) RunCypher(ctx context.Context, db, cypher string, params map[string]any) ([]Record, error) {
	if err := g.identifiers.RequireRegistered(db); err != nil {
		return nil, err
	}
	if err := guardReadOnly(cypher); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.graphTimeout)
	defer cancel()

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: db,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, mapNeo4jError(err)
	}

	var records []Record
	for result.Next(ctx) {
		rec := result.Record()
		row := make(Record, len(rec.Keys))
		for _, key := range rec.Keys {
			v, _ := rec.Get(key)
			row[key] = v
		}
		records = append(records, row)
	}
	if err := result.Err(); err != nil {
		return nil, mapNeo4jError(err)
	}
	return records, nil
}

// EnsureResult reports the outcome of EnsureFulltextIndex.
type EnsureResult struct {
	// Exists is true if the index was present before this call, or was
	// just created by it.
	Exists bool
	// Created is true if this call issued the DDL that created the index.
	Created bool
}

// EnsureFulltextIndex creates a fulltext index over the given labels and
// properties if it does not already exist. This is the one operation
// permitted to perform schema DDL against an otherwise read-only gateway.
// When createIfMissing is false and the index is absent, it returns
// EnsureResult{Exists: false} without issuing any DDL.
func (g *Gateway) EnsureFulltextIndex(ctx context.Context, db, indexName string, labels, properties []string, createIfMissing bool) (EnsureResult, error) {
	if err := g.identifiers.RequireRegistered(db); err != nil {
		return EnsureResult{}, err
	}
	for _, l := range labels {
		if !idregistry.ValidIdentifier(l) {
			return EnsureResult{}, orcherr.New(orcherr.CodeInvalidIdentifier, "invalid label: "+l).WithComponent("graphgw")
		}
	}

	exists, err := g.fulltextIndexExists(ctx, db, indexName)
	if err != nil {
		return EnsureResult{}, err
	}
	if !createIfMissing && !exists {
		return EnsureResult{Exists: false}, nil
	}
	if exists {
		return EnsureResult{Exists: true}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.graphTimeout)
	defer cancel()

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: db,
	})
	defer session.Close(ctx)

	labelPattern := strings.Join(labels, "|")
	propList := make([]string, len(properties))
	for i, p := range properties {
		propList[i] = "n." + p
	}
	stmt := fmt.Sprintf(
		"CREATE FULLTEXT INDEX %s IF NOT EXISTS FOR (n:%s) ON EACH [%s]",
		indexName, labelPattern, strings.Join(propList, ", "),
	)
	if _, err := session.Run(ctx, stmt, nil); err != nil {
		return EnsureResult{}, mapNeo4jError(err)
	}
	return EnsureResult{Exists: true, Created: true}, nil
}

// fulltextIndexExists reports whether a fulltext index with name already
// exists in db.
func (g *Gateway) fulltextIndexExists(ctx context.Context, db, name string) (bool, error) {
	rows, err := g.RunCypher(ctx, db,
		"SHOW FULLTEXT INDEXES YIELD name WHERE name = $name RETURN name", map[string]any{"name": name})
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// FulltextHit is a single scored match from FulltextSearch.
type FulltextHit struct {
	NodeID string
	Score  float64
	Labels []string
	Node   Record
}

// FulltextSearch queries a fulltext index for terms, returning hits
// ordered by descending score. Node identity uses elementId(), never the
// legacy integer id, per SPEC_FULL.md §4.2.
func (g *Gateway) FulltextSearch(ctx context.Context, db, indexName, terms string, limit int) ([]FulltextHit, error) {
	if err := g.identifiers.RequireRegistered(db); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.graphTimeout)
	defer cancel()

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: db,
	})
	defer session.Close(ctx)

	stmt := `CALL db.index.fulltext.queryNodes($index, $terms) YIELD node, score
RETURN elementId(node) AS id, score AS score, labels(node) AS labels, properties(node) AS props
ORDER BY score DESC LIMIT $limit`
	result, err := session.Run(ctx, stmt, map[string]any{
		"index": indexName,
		"terms": terms,
		"limit": limit,
	})
	if err != nil {
		return nil, mapNeo4jError(err)
	}

	var hits []FulltextHit
	for result.Next(ctx) {
		rec := result.Record()
		id, _ := rec.Get("id")
		score, _ := rec.Get("score")
		labels, _ := rec.Get("labels")
		props, _ := rec.Get("props")

		hit := FulltextHit{NodeID: fmt.Sprintf("%v", id)}
		if s, ok := score.(float64); ok {
			hit.Score = s
		}
		if items, ok := labels.([]any); ok {
			for _, l := range items {
				if s, ok := l.(string); ok {
					hit.Labels = append(hit.Labels, s)
				}
			}
		}
		if p, ok := props.(map[string]any); ok {
			hit.Node = p
		}
		hits = append(hits, hit)
	}
	if err := result.Err(); err != nil {
		return nil, mapNeo4jError(err)
	}
	return hits, nil
}

// GetSchemaSnapshot introspects the labels, relationship types, and
// property keys visible in db.
func (g *Gateway) GetSchemaSnapshot(ctx context.Context, db string) (SchemaSnapshot, error) {
	if err := g.identifiers.RequireRegistered(db); err != nil {
		return SchemaSnapshot{}, err
	}

	labels, err := g.RunCypher(ctx, db, "CALL db.labels() YIELD label RETURN label", nil)
	if err != nil {
		return SchemaSnapshot{}, err
	}
	rels, err := g.RunCypher(ctx, db, "CALL db.relationshipTypes() YIELD relationshipType RETURN relationshipType", nil)
	if err != nil {
		return SchemaSnapshot{}, err
	}
	props, err := g.RunCypher(ctx, db, "CALL db.propertyKeys() YIELD propertyKey RETURN propertyKey", nil)
	if err != nil {
		return SchemaSnapshot{}, err
	}

	snap := SchemaSnapshot{}
	for _, r := range labels {
		if v, ok := r["label"].(string); ok {
			snap.Labels = append(snap.Labels, v)
		}
	}
	for _, r := range rels {
		if v, ok := r["relationshipType"].(string); ok {
			snap.RelationshipTypes = append(snap.RelationshipTypes, v)
		}
	}
	for _, r := range props {
		if v, ok := r["propertyKey"].(string); ok {
			snap.PropertyKeys = append(snap.PropertyKeys, v)
		}
	}
	return snap, nil
}

// Close shuts down the underlying driver. Called once at process
// shutdown, never per-request.
func (g *Gateway) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

// Query adapts RunCypher to query.GraphClient's signature, letting the
// Gateway be driven by the graphrag/query clause builder below.
func (g *Gateway) Query(ctx context.Context, db, cypher string, params map[string]any) ([]map[string]any, error) {
	records, err := g.RunCypher(ctx, db, cypher, params)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out, nil
}

var _ query.GraphClient = (*dbBoundClient)(nil)

// dbBoundClient adapts a Gateway plus a fixed database name to
// query.GraphClient, so callers holding only a Gateway and a db name can
// still use the parameterized clause builder without threading db
// through every call site.
type dbBoundClient struct {
	gateway *Gateway
	db      string
}

func (c *dbBoundClient) Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	return c.gateway.Query(ctx, c.db, cypher, params)
}

// BoundTo returns a query.GraphClient scoped to db, for use with
// graphrag/query's clause builders.
func (g *Gateway) BoundTo(db string) query.GraphClient {
	return &dbBoundClient{gateway: g, db: db}
}

// FindNodes builds and executes a MATCH/WHERE/RETURN query via the
// parameterized clause builder in graphrag/query, rather than
// concatenating a Cypher string by hand. alias is the node variable
// used internally; fields limits the RETURN projection (empty returns
// the whole node).
func FindNodes(ctx context.Context, client query.GraphClient, nodeType string, predicates []query.Predicate, fields []string) ([]map[string]any, error) {
	if !idregistry.ValidIdentifier(nodeType) {
		return nil, orcherr.New(orcherr.CodeInvalidIdentifier, "invalid node label: "+nodeType).WithComponent("graphgw")
	}

	const alias = "n"
	match, err := query.BuildMatch(nodeType, alias)
	if err != nil {
		return nil, err
	}
	where, params, err := query.BuildWhere(predicates, alias)
	if err != nil {
		return nil, err
	}
	ret, err := query.BuildReturn(alias, fields)
	if err != nil {
		return nil, err
	}

	cypher := match
	if where != "" {
		cypher += " " + where
	}
	cypher += " " + ret

	return client.Query(ctx, cypher, params)
}

func mapNeo4jError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return orcherr.Wrap(err, orcherr.CodeTimeout, "graph query timed out").WithComponent("graphgw")
	}
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		return orcherr.Wrap(err, orcherr.CodeToolError, "graph query failed").
			WithComponent("graphgw").WithDetails(map[string]any{"neo4j_code": neoErr.Code})
	}
	return orcherr.Wrap(err, orcherr.CodeUnreachable, "graph backend unreachable").WithComponent("graphgw")
}
