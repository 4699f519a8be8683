// Package agentpool is the Agent Factory & Pool (C5): it provisions one
// Agent per registered database, each carrying a closure-bound tool set
// over that database and the current request's Shared Memory, and it
// tracks per-agent readiness. Tool construction is grounded on
// tool.Config/tool.New (the teacher's schema-validated builder pattern);
// readiness fan-out across replicas is grounded on queue/client.go's
// go-redis/v9 Publish/Subscribe usage.
package agentpool

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/graphmind/orchestrator/graphgw"
	"github.com/graphmind/orchestrator/graphrag/query"
	"github.com/graphmind/orchestrator/input"
	"github.com/graphmind/orchestrator/llm"
	"github.com/graphmind/orchestrator/orcherr"
	"github.com/graphmind/orchestrator/runtime"
	"github.com/graphmind/orchestrator/schema"
	"github.com/graphmind/orchestrator/sharedmem"
	"github.com/graphmind/orchestrator/tool"
	"github.com/graphmind/orchestrator/types"
)

// State is an agent's readiness state, as probed independently of
// request traffic on a T_probe cadence.
type State string

const (
	StateReady     State = "ready"
	StateDegraded  State = "degraded"
	StateBlocked   State = "blocked"
)

// Agent is one database-bound agent: a system prompt and the shared
// Adapter used to run it. Its closure-bound tool set is rebuilt on every
// Run call, since SPEC_FULL.md §4.5 requires each tool to close over
// both db and the request's SharedMemory reference, and SharedMemory is
// scoped to one request rather than to the agent's lifetime.
type Agent struct {
	DB      string
	adapter *runtime.Adapter
	pool    *Pool
}

// Run executes the agent's system prompt plus a user query against the
// given request-scoped SharedMemory, dispatching any tool calls the
// model requests back into tools built fresh for this call.
func (a *Agent) Run(ctx context.Context, query string, shared *sharedmem.SharedMemory) (runtime.Outcome, error) {
	system := "You are a knowledge graph specialist agent bound to database '" + a.DB + "'. " +
		"Use the available tools to query the graph before answering. Only answer from what the tools return."

	tools, toolDefs := a.pool.buildTools(a.DB, shared)

	handler := func(ctx context.Context, name, argsJSON string) (string, error) {
		args, err := runtime.DecodeArguments(argsJSON)
		if err != nil {
			return "", err
		}
		for _, t := range tools {
			if t.Name() == name {
				out, err := t.Execute(ctx, args)
				if err != nil {
					return "", err
				}
				encoded, err := json.Marshal(out)
				if err != nil {
					return "", orcherr.Wrap(err, orcherr.CodeInternal, "failed to encode tool result")
				}
				return string(encoded), nil
			}
		}
		return "", orcherr.New(orcherr.CodeToolError, "unknown tool: "+name)
	}

	messages := []llm.Message{{Role: llm.RoleUser, Content: query}}
	outcome, err := a.adapter.Run(ctx, system, messages, toolDefs, handler, llm.WithTemperature(0.2))
	if err != nil {
		return runtime.Outcome{}, err
	}
	shared.PutResult(a.DB, outcome.Text)
	return outcome, nil
}

// Pool provisions and tracks one Agent per registered database.
type Pool struct {
	gateway *graphgw.Gateway
	adapter *runtime.Adapter

	mu        sync.RWMutex
	agents    map[string]*Agent
	readiness map[string]State

	redis       *redis.Client
	probeTimeout time.Duration
}

// New creates a Pool. redisClient may be nil, in which case readiness
// is tracked locally only (no cross-replica fan-out).
func New(gateway *graphgw.Gateway, adapter *runtime.Adapter, redisClient *redis.Client, probeTimeout time.Duration) *Pool {
	return &Pool{
		gateway:      gateway,
		adapter:      adapter,
		agents:       make(map[string]*Agent),
		readiness:    make(map[string]State),
		redis:        redisClient,
		probeTimeout: probeTimeout,
	}
}

// Provision builds (or returns the existing) Agent bound to db.
func (p *Pool) Provision(db string) *Agent {
	p.mu.Lock()
	defer p.mu.Unlock()

	if a, ok := p.agents[db]; ok {
		return a
	}

	a := &Agent{DB: db, adapter: p.adapter, pool: p}
	p.agents[db] = a
	p.readiness[db] = StateBlocked
	return a
}

// buildTools constructs the five closure-bound tools named in
// SPEC_FULL.md §4.5: query_db, get_schema, rerank_candidates,
// find_nodes, put_shared_result — every closure captures db and the
// current request's SharedMemory, rebuilt on every Agent.Run call since
// SharedMemory is scoped to one request.
func (p *Pool) buildTools(db string, shared *sharedmem.SharedMemory) ([]tool.Tool, []llm.ToolDef) {
	queryDB, _ := tool.New(tool.NewConfig().
		SetName("query_db").
		SetVersion("1.0.0").
		SetDescription("Execute a read-only parameterized Cypher query against db " + db).
		SetInputSchema(schema.Object(map[string]schema.JSON{
			"cypher": schema.StringWithDesc("parameterized Cypher statement"),
			"params": schema.Any(),
		}, "cypher")).
		SetOutputSchema(schema.Object(map[string]schema.JSON{
			"records": schema.Any(),
			"cache":   schema.String(),
		})).
		SetExecuteFunc(func(ctx context.Context, args map[string]any) (map[string]any, error) {
			cypher := input.GetString(args, "cypher", "")
			params := input.GetMap(args, "params")

			if cached, hit := shared.GetCached(db, cypher); hit {
				var records []graphgw.Record
				if err := json.Unmarshal([]byte(cached), &records); err == nil {
					return map[string]any{"records": records, "cache": "hit"}, nil
				}
			}

			records, err := p.gateway.RunCypher(ctx, db, cypher, params)
			if err != nil {
				return nil, err
			}
			if encoded, err := json.Marshal(records); err == nil {
				shared.PutCached(db, cypher, string(encoded))
			}
			return map[string]any{"records": records, "cache": "miss"}, nil
		}))

	getSchema, _ := tool.New(tool.NewConfig().
		SetName("get_schema").
		SetVersion("1.0.0").
		SetDescription("Retrieve the label/relationship/property schema of db " + db).
		SetInputSchema(schema.Object(map[string]schema.JSON{})).
		SetOutputSchema(schema.Object(map[string]schema.JSON{
			"labels":             schema.Array(schema.String()),
			"relationship_types": schema.Array(schema.String()),
			"property_keys":      schema.Array(schema.String()),
		})).
		SetExecuteFunc(func(ctx context.Context, args map[string]any) (map[string]any, error) {
			snap, err := p.gateway.GetSchemaSnapshot(ctx, db)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"labels":             snap.Labels,
				"relationship_types": snap.RelationshipTypes,
				"property_keys":      snap.PropertyKeys,
			}, nil
		}))

	rerankCandidates, _ := tool.New(tool.NewConfig().
		SetName("rerank_candidates").
		SetVersion("1.0.0").
		SetDescription("Fulltext-search db " + db + " for entity candidates matching terms").
		SetInputSchema(schema.Object(map[string]schema.JSON{
			"index": schema.String(),
			"terms": schema.String(),
			"limit": schema.Int(),
		}, "index", "terms")).
		SetOutputSchema(schema.Object(map[string]schema.JSON{"hits": schema.Any()})).
		SetExecuteFunc(func(ctx context.Context, args map[string]any) (map[string]any, error) {
			index := input.GetString(args, "index", "")
			terms := input.GetString(args, "terms", "")
			limit := input.GetInt(args, "limit", 10)
			hits, err := p.gateway.FulltextSearch(ctx, db, index, terms, limit)
			if err != nil {
				return nil, err
			}
			return map[string]any{"hits": hits}, nil
		}))

	findNodes, _ := tool.New(tool.NewConfig().
		SetName("find_nodes").
		SetVersion("1.0.0").
		SetDescription("Find nodes of a given type in db " + db + " matching simple field filters, "+
			"without writing raw Cypher").
		SetInputSchema(schema.Object(map[string]schema.JSON{
			"node_type": schema.StringWithDesc("node label to match"),
			"filters":   schema.Array(schema.FromType(filterArg{})),
			"fields":    schema.Array(schema.String()),
		}, "node_type")).
		SetOutputSchema(schema.Object(map[string]schema.JSON{"records": schema.Any()})).
		SetExecuteFunc(func(ctx context.Context, args map[string]any) (map[string]any, error) {
			nodeType := input.GetString(args, "node_type", "")
			predicates := decodePredicates(args["filters"])
			fields := decodeStrings(args["fields"])

			records, err := graphgw.FindNodes(ctx, p.gateway.BoundTo(db), nodeType, predicates, fields)
			if err != nil {
				return nil, err
			}
			return map[string]any{"records": records}, nil
		}))

	// put_shared_result lets an agent stash an intermediate (not-final)
	// finding mid-loop, visible to every other agent sharing this
	// request's SharedMemory. The agent's final answer is still recorded
	// separately by Agent.Run once the adapter loop completes.
	putSharedResult, _ := tool.New(tool.NewConfig().
		SetName("put_shared_result").
		SetVersion("1.0.0").
		SetDescription("Record an intermediate finding from db " + db + " visible to other agents this request").
		SetInputSchema(schema.Object(map[string]schema.JSON{
			"note": schema.String(),
		}, "note")).
		SetOutputSchema(schema.Object(map[string]schema.JSON{"ok": schema.Bool()})).
		SetExecuteFunc(func(ctx context.Context, args map[string]any) (map[string]any, error) {
			note := input.GetString(args, "note", "")
			shared.PutResult(db, note)
			return map[string]any{"ok": true}, nil
		}))

	tools := []tool.Tool{queryDB, getSchema, rerankCandidates, findNodes, putSharedResult}
	defs := make([]llm.ToolDef, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, llm.ToolDef{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  schemaToMap(t.InputSchema()),
		})
	}
	return tools, defs
}

var opsByName = map[string]query.Op{
	"eq": query.Eq, "neq": query.Neq, "lt": query.Lt, "lte": query.Lte,
	"gt": query.Gt, "gte": query.Gte, "contains": query.Contains,
	"starts_with": query.StartsWith, "ends_with": query.EndsWith,
	"in": query.In, "is_null": query.IsNull, "is_not_null": query.IsNotNull,
}

// filterArg mirrors the find_nodes tool's per-predicate filter argument.
// Its JSON schema is generated via schema.FromType rather than hand-built,
// so the wire shape documented to the model and the Go shape decoded by
// decodePredicates can never drift apart.
type filterArg struct {
	Field string `json:"field" description:"property name to filter on"`
	Op    string `json:"op" description:"one of: eq, neq, lt, lte, gt, gte, contains, starts_with, ends_with, in, is_null, is_not_null"`
	Value any    `json:"value,omitempty"`
}

// decodePredicates converts the find_nodes tool's raw filter input into
// query.Predicate values for graphgw.FindNodes's clause builder.
func decodePredicates(raw any) []query.Predicate {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	predicates := make([]query.Predicate, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		field := input.GetString(m, "field", "")
		opName := input.GetString(m, "op", "")
		op, ok := opsByName[opName]
		if field == "" || !ok {
			continue
		}
		predicates = append(predicates, query.Predicate{Field: field, Op: op, Value: m["value"]})
	}
	return predicates
}

func decodeStrings(raw any) []string {
	items, ok := raw.([]any)
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

// schemaToMap round-trips a schema.JSON through its JSON tags into the
// plain map[string]any shape llm.ToolDef.Parameters expects.
func schemaToMap(s schema.JSON) map[string]any {
	encoded, err := json.Marshal(s)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(encoded, &m); err != nil {
		return map[string]any{}
	}
	return m
}

// SetReadiness records db's readiness, publishing the change on the
// "readiness" redis channel when a client is configured so other
// replicas converge without independently reprobing.
func (p *Pool) SetReadiness(ctx context.Context, db string, state State) {
	p.mu.Lock()
	p.readiness[db] = state
	p.mu.Unlock()

	if p.redis == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{"db": db, "state": string(state)})
	p.redis.Publish(ctx, "readiness", payload)
}

// Readiness returns a snapshot of every tracked database's state.
func (p *Pool) Readiness() map[string]State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]State, len(p.readiness))
	for k, v := range p.readiness {
		out[k] = v
	}
	return out
}

// SubscribeReadiness listens for readiness changes published by other
// replicas and applies them locally. Runs until ctx is cancelled.
func (p *Pool) SubscribeReadiness(ctx context.Context) {
	if p.redis == nil {
		return
	}
	sub := p.redis.Subscribe(ctx, "readiness")
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var evt struct {
				DB    string `json:"db"`
				State string `json:"state"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				continue
			}
			p.mu.Lock()
			p.readiness[evt.DB] = State(evt.State)
			p.mu.Unlock()
		}
	}
}

// Agents returns every provisioned agent's database name.
func (p *Pool) Agents() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.agents))
	for db := range p.agents {
		out = append(out, db)
	}
	return out
}

// Get returns the provisioned Agent for db, or nil if not provisioned.
func (p *Pool) Get(db string) *Agent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.agents[db]
}

// ToolHealth reports the Health() of every tool bound to db, without
// running a full agent turn. SharedMemory-dependent tools (put_shared_result,
// query_db) report their fixed operational status regardless of the nil
// SharedMemory passed here, since Health() never touches request state.
func (p *Pool) ToolHealth(ctx context.Context, db string) map[string]types.HealthStatus {
	tools, _ := p.buildTools(db, nil)
	out := make(map[string]types.HealthStatus, len(tools))
	for _, t := range tools {
		out[t.Name()] = t.Health(ctx)
	}
	return out
}

// ToolDescriptors returns the metadata (name, schema, tags) of every tool
// bound to db, for listing over the /agents endpoint.
func (p *Pool) ToolDescriptors(db string) []tool.Descriptor {
	tools, _ := p.buildTools(db, nil)
	out := make([]tool.Descriptor, 0, len(tools))
	for _, t := range tools {
		out = append(out, tool.ToDescriptor(t))
	}
	return out
}

// Gateway returns the Graph Gateway backing this pool, for callers (such
// as the LPG/RDF specialists in semanticflow) that need to issue Cypher
// directly rather than through an agent's tool-use loop.
func (p *Pool) Gateway() *graphgw.Gateway {
	return p.gateway
}
