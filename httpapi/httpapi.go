// Package httpapi is the ambient HTTP surface (§6.1): request decoding
// and validation over go-chi/chi/v5 and go-playground/validator/v10, in
// front of the Request Supervisor (C12). The teacher SDK itself has no
// HTTP framework (its serve/ package is gRPC-style plugin serving), so
// this package is grounded on the corpus-wide go-chi/chi + validator
// pairing observed across other_examples/manifests/*/go.mod.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/graphmind/orchestrator/agentpool"
	"github.com/graphmind/orchestrator/idregistry"
	"github.com/graphmind/orchestrator/orcherr"
	"github.com/graphmind/orchestrator/readiness"
	"github.com/graphmind/orchestrator/resolver"
	"github.com/graphmind/orchestrator/supervisor"
)

// nowFunc is overridable for tests; production wiring sets it to
// time.Now in cmd/orchestrator so every other package stays free of
// wall-clock calls.
type nowFunc func() int64

// defaultFulltextProperties mirrors resolver.displayNameOf's key
// preference order, so an index created here always covers the fields
// the Resolver actually reads a display name from.
var defaultFulltextProperties = []string{"name", "display_name", "title"}

// Server exposes the §6.1 endpoints.
type Server struct {
	router      chi.Router
	supervisor  *supervisor.Supervisor
	identifiers *idregistry.Registry
	validate    *validator.Validate
	logger      *slog.Logger
	now         nowFunc
	maxInFlight int
}

// New builds a Server. maxInFlight bounds concurrent in-flight requests
// (Qmax); requests past the cap receive 503 immediately.
func New(sup *supervisor.Supervisor, identifiers *idregistry.Registry, logger *slog.Logger, maxInFlight int, now nowFunc) *Server {
	s := &Server{
		supervisor:  sup,
		identifiers: identifiers,
		validate:    validator.New(),
		logger:      logger,
		now:         now,
		maxInFlight: maxInFlight,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.capacityMiddleware())

	r.Post("/run_agent", s.handleRunAgent)
	r.Post("/run_agent_semantic", s.handleRunAgentSemantic)
	r.Post("/run_debate", s.handleRunDebate)
	r.Post("/platform/chat/send", s.handleChatSend)
	r.Post("/indexes/fulltext/ensure", s.handleEnsureFulltextIndex)
	r.Get("/databases", s.handleListDatabases)
	r.Get("/agents", s.handleListAgents)
	r.Get("/health/runtime", s.handleHealthRuntime)
	r.Get("/health/batch", s.handleHealthBatch)
	return r
}

func (s *Server) capacityMiddleware() func(http.Handler) http.Handler {
	sem := make(chan struct{}, s.maxInFlight)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
				next.ServeHTTP(w, r)
			default:
				writeError(w, orcherr.New(orcherr.CodeBlocked, "server at capacity"))
			}
		})
	}
}

type runAgentRequest struct {
	Query       string `json:"query" validate:"required"`
	WorkspaceID string `json:"workspace_id" validate:"required"`
	Database    string `json:"database" validate:"required"`
}

// handleRunAgent is the legacy single-route execution path: one db, no
// resolver/router involvement.
func (s *Server) handleRunAgent(w http.ResponseWriter, r *http.Request) {
	var req runAgentRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if err := s.requireRegisteredDBs([]string{req.Database}); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.supervisor.RunAgent(r.Context(), req.Query, req.Database, s.now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type runSemanticRequest struct {
	Query           string            `json:"query" validate:"required"`
	WorkspaceID     string            `json:"workspace_id" validate:"required"`
	Databases       []string          `json:"databases" validate:"required,min=1"`
	EntityOverrides []overrideRequest `json:"entity_overrides"`
	TopK            int               `json:"top_k"`
}

type overrideRequest struct {
	Mention string `json:"mention" validate:"required"`
	DB      string `json:"db" validate:"required"`
	NodeID  string `json:"node_id" validate:"required"`
}

func (s *Server) handleRunAgentSemantic(w http.ResponseWriter, r *http.Request) {
	var req runSemanticRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if err := s.requireRegisteredDBs(req.Databases); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.supervisor.RunSemantic(r.Context(), req.Query, req.Databases, toOverrides(req.EntityOverrides), normalizeTopK(req.TopK), s.now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type runDebateRequest struct {
	Query       string   `json:"query" validate:"required"`
	WorkspaceID string   `json:"workspace_id" validate:"required"`
	Databases   []string `json:"databases"`
}

func (s *Server) handleRunDebate(w http.ResponseWriter, r *http.Request) {
	var req runDebateRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	dbs := req.Databases
	if len(dbs) == 0 {
		dbs = s.identifiers.ListUserDBs()
	}
	if err := s.requireRegisteredDBs(dbs); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.supervisor.RunDebate(r.Context(), req.Query, dbs, s.now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type chatSendRequest struct {
	SessionID   string   `json:"session_id" validate:"required"`
	Message     string   `json:"message" validate:"required"`
	Mode        string   `json:"mode" validate:"required,oneof=semantic debate"`
	WorkspaceID string   `json:"workspace_id" validate:"required"`
	Databases   []string `json:"databases" validate:"required,min=1"`
}

type chatSendResponse struct {
	AssistantMessage string              `json:"assistant_message"`
	TraceSteps       any                 `json:"trace_steps"`
	UIPayload        map[string]any      `json:"ui_payload"`
	RuntimePayload   supervisor.RunResult `json:"runtime_payload"`
	RuntimeControl   map[string]any      `json:"runtime_control"`
	FallbackFrom     string              `json:"fallback_from,omitempty"`
}

// handleChatSend is the session-bound UI adapter: it wraps whichever
// mode the caller asked for in a chat-shaped envelope, per SPEC_FULL.md
// §6.1.
func (s *Server) handleChatSend(w http.ResponseWriter, r *http.Request) {
	var req chatSendRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if err := s.requireRegisteredDBs(req.Databases); err != nil {
		writeError(w, err)
		return
	}

	var result supervisor.RunResult
	var err error
	switch req.Mode {
	case "debate":
		result, err = s.supervisor.RunDebate(r.Context(), req.Message, req.Databases, s.now())
	default:
		result, err = s.supervisor.RunSemantic(r.Context(), req.Message, req.Databases, nil, 10, s.now())
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatSendResponse{
		AssistantMessage: result.Answer,
		TraceSteps:       result.TraceSteps,
		UIPayload: map[string]any{
			"session_id": req.SessionID,
			"mode":       result.Mode,
		},
		RuntimePayload: result,
		RuntimeControl: map[string]any{
			"debate_state": result.DebateState,
		},
		FallbackFrom: result.FallbackFrom,
	})
}

type ensureFulltextRequest struct {
	WorkspaceID     string   `json:"workspace_id" validate:"required"`
	Databases       []string `json:"databases" validate:"required,min=1"`
	IndexName       string   `json:"index_name" validate:"required"`
	CreateIfMissing bool     `json:"create_if_missing"`
}

// handleEnsureFulltextIndex calls straight through to the Graph
// Gateway's EnsureFulltextIndex for every requested database, over every
// label currently visible in that database's schema (per
// GetSchemaSnapshot) and the Resolver's display-name property set.
func (s *Server) handleEnsureFulltextIndex(w http.ResponseWriter, r *http.Request) {
	var req ensureFulltextRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if err := s.requireRegisteredDBs(req.Databases); err != nil {
		writeError(w, err)
		return
	}

	gateway := s.supervisor.Pool().Gateway()
	results := make(map[string]any, len(req.Databases))
	for _, db := range req.Databases {
		snap, err := gateway.GetSchemaSnapshot(r.Context(), db)
		if err != nil {
			writeError(w, err)
			return
		}
		res, err := gateway.EnsureFulltextIndex(r.Context(), db, req.IndexName, snap.Labels, defaultFulltextProperties, req.CreateIfMissing)
		if err != nil {
			writeError(w, err)
			return
		}
		results[db] = map[string]any{"exists": res.Exists, "created": res.Created}
	}

	status := http.StatusOK
	if req.CreateIfMissing {
		status = http.StatusAccepted
	}
	writeJSON(w, status, map[string]any{"databases": results})
}

func (s *Server) handleListDatabases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"databases": s.identifiers.ListUserDBs()})
}

// handleListAgents reports every db-bound agent the Agent Pool has
// actually provisioned, alongside its last-probed readiness state.
func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	pool := s.supervisor.Pool()
	states := pool.Readiness()
	agents := make([]map[string]any, 0, len(pool.Agents()))
	for _, db := range pool.Agents() {
		state, ok := states[db]
		if !ok {
			state = agentpool.StateBlocked
		}
		agents = append(agents, map[string]any{
			"db":          db,
			"state":       string(state),
			"tool_health": pool.ToolHealth(r.Context(), db),
			"tools":       pool.ToolDescriptors(db),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": agents})
}

// handleHealthRuntime reports the Agent Pool's own probed readiness —
// whether the foundation-model-backed agents are usable — independent
// of the graph backend's reachability.
func (s *Server) handleHealthRuntime(w http.ResponseWriter, r *http.Request) {
	summary := readiness.Combine(s.supervisor.Pool().Readiness())
	status := http.StatusOK
	if summary.DebateState == "blocked" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, summary)
}

// handleHealthBatch probes every registered database's reachability
// directly against the graph backend with a trivial read, independent
// of the Agent Pool's own readiness bookkeeping.
func (s *Server) handleHealthBatch(w http.ResponseWriter, r *http.Request) {
	gateway := s.supervisor.Pool().Gateway()
	dbs := s.identifiers.ListUserDBs()
	states := make(map[string]agentpool.State, len(dbs))
	for _, db := range dbs {
		if _, err := gateway.RunCypher(r.Context(), db, "RETURN 1", nil); err != nil {
			states[db] = agentpool.StateBlocked
			continue
		}
		states[db] = agentpool.StateReady
	}
	summary := readiness.Combine(states)
	status := http.StatusOK
	if summary.DebateState == "blocked" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, summary)
}

func (s *Server) requireRegisteredDBs(dbs []string) error {
	for _, db := range dbs {
		if err := s.identifiers.RequireRegistered(db); err != nil {
			return err
		}
	}
	return nil
}

func toOverrides(reqs []overrideRequest) []resolver.Override {
	if len(reqs) == 0 {
		return nil
	}
	out := make([]resolver.Override, 0, len(reqs))
	for _, o := range reqs {
		out = append(out, resolver.Override{Mention: o.Mention, DB: o.DB, NodeID: o.NodeID})
	}
	return out
}

func normalizeTopK(topK int) int {
	if topK <= 0 {
		return 10
	}
	return topK
}

func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, orcherr.New(orcherr.CodeInvalidIdentifier, "malformed request body"))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, orcherr.Wrap(err, orcherr.CodeInvalidIdentifier, "request validation failed"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	re := orcherr.FromError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(orcherr.HTTPStatus(re.Code))
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error_code": re.Code,
		"message":    re.Message,
	})
}
