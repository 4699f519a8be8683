package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphmind/orchestrator/httpapi"
	"github.com/graphmind/orchestrator/idregistry"
)

func newTestServer(t *testing.T) *httpapi.Server {
	t.Helper()
	identifiers, err := idregistry.New(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, identifiers.RegisterDB(context.Background(), "threatgraph"))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpapi.New(nil, identifiers, logger, 4, func() int64 { return 1000 })
}

func doJSON(t *testing.T, s *httpapi.Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestRunAgentRejectsMissingFields(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/run_agent", map[string]any{"workspace_id": "ws"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunAgentRejectsUnregisteredDatabase(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/run_agent", map[string]any{
		"query": "who owns Acme Corp", "workspace_id": "ws", "database": "unknown",
	})
	assert.NotEqual(t, http.StatusOK, rec.Code)
}

func TestRunAgentSemanticRejectsEmptyDatabases(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/run_agent_semantic", map[string]any{
		"query": "who owns Acme Corp", "workspace_id": "ws", "databases": []string{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatSendRejectsInvalidMode(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/platform/chat/send", map[string]any{
		"session_id": "s1", "message": "hi", "mode": "oracle",
		"workspace_id": "ws", "databases": []string{"threatgraph"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnsureFulltextIndexRejectsUnregisteredDatabase(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/indexes/fulltext/ensure", map[string]any{
		"workspace_id": "ws", "databases": []string{"unknown"}, "index_name": "entity_fulltext",
	})
	assert.NotEqual(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, http.StatusAccepted, rec.Code)
}

func TestListDatabasesReturnsOnlyUserDBs(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/databases", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	dbs, ok := body["databases"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"threatgraph"}, dbs)
}

func TestMalformedBodyReturnsBadRequest(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/run_agent", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRouteReturns404(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/not_a_route", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCapacityMiddlewareRejectsPastLimit(t *testing.T) {
	identifiers, err := idregistry.New(context.Background(), nil)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := httpapi.New(nil, identifiers, logger, 0, func() int64 { return 1000 })

	rec := doJSON(t, s, http.MethodGet, "/databases", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
