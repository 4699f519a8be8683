package graphgw_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphmind/orchestrator/graphgw"
	"github.com/graphmind/orchestrator/graphrag/query"
)

type fakeGraphClient struct {
	lastCypher string
	lastParams map[string]any
	records    []map[string]any
	err        error
}

func (f *fakeGraphClient) Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	f.lastCypher = cypher
	f.lastParams = params
	return f.records, f.err
}

func TestFindNodesBuildsParameterizedCypher(t *testing.T) {
	fake := &fakeGraphClient{records: []map[string]any{{"n.name": "Acme Corp"}}}

	got, err := graphgw.FindNodes(context.Background(), fake, "Organization", []query.Predicate{
		{Field: "name", Op: query.Eq, Value: "Acme Corp"},
	}, []string{"name"})

	require.NoError(t, err)
	assert.Equal(t, fake.records, got)
	assert.Contains(t, fake.lastCypher, "MATCH (n:Organization)")
	assert.Contains(t, fake.lastCypher, "WHERE n.name = $p0")
	assert.Contains(t, fake.lastCypher, "RETURN")
	assert.Equal(t, "Acme Corp", fake.lastParams["p0"])
}

func TestFindNodesWithoutPredicatesOmitsWhere(t *testing.T) {
	fake := &fakeGraphClient{}

	_, err := graphgw.FindNodes(context.Background(), fake, "Person", nil, nil)

	require.NoError(t, err)
	assert.NotContains(t, fake.lastCypher, "WHERE")
}

func TestFindNodesPropagatesClientError(t *testing.T) {
	fake := &fakeGraphClient{err: assert.AnError}

	_, err := graphgw.FindNodes(context.Background(), fake, "Person", nil, nil)

	assert.ErrorIs(t, err, assert.AnError)
}

func TestFindNodesRejectsInvalidNodeType(t *testing.T) {
	fake := &fakeGraphClient{}

	_, err := graphgw.FindNodes(context.Background(), fake, "Person) DETACH DELETE n //", nil, nil)

	require.Error(t, err)
	assert.Empty(t, fake.lastCypher)
}
