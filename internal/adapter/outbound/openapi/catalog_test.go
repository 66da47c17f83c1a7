package openapi_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/scholarmcp/internal/adapter/outbound/openapi"
	"github.com/i2y/scholarmcp/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadCatalog_KnowsEveryToolEndpoint(t *testing.T) {
	c, err := openapi.LoadCatalog(context.Background(), discardLogger())
	require.NoError(t, err)

	for _, ep := range []domain.Endpoint{
		domain.EndpointPaperSearch,
		domain.EndpointPaper,
		domain.EndpointPaperBatch,
		domain.EndpointAuthorSearch,
		domain.EndpointAuthor,
		domain.EndpointRecommendations,
	} {
		assert.NoError(t, c.Known(ep), ep.Name)
	}
	assert.Equal(t, "https://api.semanticscholar.org", c.ServerURL())
	assert.Equal(t, []string{"paper_id"}, c.PathParams(domain.EndpointPaper))
	assert.Equal(t, []string{"author_id"}, c.PathParams(domain.EndpointAuthor))
	assert.Empty(t, c.PathParams(domain.EndpointPaperSearch))
}

func TestCatalog_Known(t *testing.T) {
	c, err := openapi.LoadCatalog(context.Background(), discardLogger())
	require.NoError(t, err)

	tests := []struct {
		name string
		ep   domain.Endpoint
	}{
		{name: "Unknown path", ep: domain.Endpoint{Name: "paper.get", Method: "GET", Path: "/graph/v1/nope"}},
		{name: "Wrong method", ep: domain.Endpoint{Name: "paper.get", Method: "DELETE", Path: "/graph/v1/paper/{paper_id}"}},
		{name: "Name mismatch", ep: domain.Endpoint{Name: "paper.fetch", Method: "GET", Path: "/graph/v1/paper/{paper_id}"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Known(tt.ep)
			require.Error(t, err)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		})
	}
}

func TestCatalog_CheckRequest(t *testing.T) {
	c, err := openapi.LoadCatalog(context.Background(), discardLogger())
	require.NoError(t, err)

	ok := domain.RequestDescriptor{
		Endpoint: domain.EndpointPaperSearch,
		Query:    map[string]any{"query": "graphs", "limit": 5, "fields": []string{"title"}, "year": "2020-"},
	}
	assert.NoError(t, c.CheckRequest(ok))

	bad := domain.RequestDescriptor{
		Endpoint: domain.EndpointPaper,
		Query:    map[string]any{"query": "graphs"},
	}
	err = c.CheckRequest(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `query parameter "query"`)
}

func TestNewCatalog_RejectsMissingOperationID(t *testing.T) {
	doc := []byte(`
openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /things/{id}:
    parameters:
      - {name: id, in: path, required: true, schema: {type: string}}
    get:
      responses:
        "200": {description: ok}
`)
	_, err := openapi.NewCatalog(context.Background(), doc, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operationId")

	_, err = openapi.NewCatalog(context.Background(), []byte("not: [valid"), discardLogger())
	assert.Error(t, err)
}
