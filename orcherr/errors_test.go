package orcherr_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/graphmind/orchestrator/orcherr"
)

func TestWrapChainsCause(t *testing.T) {
	base := orcherr.New(orcherr.CodeTimeout, "graph query timed out")
	wrapped := orcherr.Wrap(base, orcherr.CodeInternal, "request failed")

	assert.Equal(t, base, wrapped.Cause)
	assert.True(t, errors.Is(wrapped, base))
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	plain := errors.New("boom")
	re := orcherr.FromError(plain)
	assert.Equal(t, orcherr.CodeInternal, re.Code)
	assert.Equal(t, "boom", re.Message)
}

func TestFromErrorPassesThroughResultError(t *testing.T) {
	original := orcherr.New(orcherr.CodeBlocked, "debate blocked")
	assert.Same(t, original, orcherr.FromError(original))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{orcherr.CodeInvalidIdentifier, http.StatusBadRequest},
		{orcherr.CodeNotRegistered, http.StatusNotFound},
		{orcherr.CodeBlocked, http.StatusServiceUnavailable},
		{orcherr.CodePolicyDenied, http.StatusForbidden},
		{orcherr.CodeTimeout, http.StatusGatewayTimeout},
		{orcherr.CodeUnreachable, http.StatusBadGateway},
		{orcherr.CodeToolError, http.StatusBadGateway},
		{orcherr.CodeInternal, http.StatusInternalServerError},
		{"SOMETHING_UNKNOWN", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, orcherr.HTTPStatus(tt.code))
	}
}

func TestWithDetailsAndRetryable(t *testing.T) {
	err := orcherr.New(orcherr.CodeToolError, "probe failed").
		WithDetails(map[string]any{"db": "threatgraph"}).
		WithRetryable(true).
		WithComponent("graphgw")

	assert.Equal(t, "threatgraph", err.Details["db"])
	assert.True(t, err.Retryable)
	assert.Equal(t, "graphgw", err.Component)
	assert.Contains(t, err.Error(), "graphgw [TOOL_ERROR]")
}
