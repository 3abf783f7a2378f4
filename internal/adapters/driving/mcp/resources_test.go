package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/core/domain"
)

func TestExtractCorpusName(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid corpus URI", "folio://corpus/physics", "physics"},
		{"encoded space", "folio://corpus/quantum%20notes", "quantum notes"},
		{"invalid prefix", "file://corpus/physics", ""},
		{"nested path", "folio://corpus/physics/extra", ""},
		{"bad escape", "folio://corpus/%zz", ""},
		{"empty name", "folio://corpus/", ""},
		{"empty URI", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractCorpusName(tt.uri))
		})
	}
}

func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleCorpusResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns descriptor JSON", func(t *testing.T) {
		corpora := &mockCorpusManager{desc: domain.Descriptor{
			Name:           "quantum notes",
			EmbeddingModel: "ngram-v1",
			Dimensions:     384,
			ChunkCount:     42,
		}}
		server := newTestServer(t, &mockSearchService{}, corpora, "")

		result, err := server.handleCorpusResource(ctx, makeReadResourceRequest("folio://corpus/quantum%20notes"))
		require.NoError(t, err)
		assert.Equal(t, "quantum notes", corpora.name)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, `"embedding_model": "ngram-v1"`)
		assert.Contains(t, result.Contents[0].Text, `"chunk_count": 42`)
	})

	t.Run("missing corpus is not found", func(t *testing.T) {
		corpora := &mockCorpusManager{err: domain.ErrCorpusNotFound}
		server := newTestServer(t, &mockSearchService{}, corpora, "")

		_, err := server.handleCorpusResource(ctx, makeReadResourceRequest("folio://corpus/missing"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrCorpusNotFound)
	})

	t.Run("invalid URI is not found", func(t *testing.T) {
		server := newTestServer(t, &mockSearchService{}, &mockCorpusManager{}, "")

		_, err := server.handleCorpusResource(ctx, makeReadResourceRequest("folio://other/x"))
		require.Error(t, err)
	})

	t.Run("other failures are wrapped", func(t *testing.T) {
		corpora := &mockCorpusManager{err: errors.New("permission denied")}
		server := newTestServer(t, &mockSearchService{}, corpora, "")

		_, err := server.handleCorpusResource(ctx, makeReadResourceRequest("folio://corpus/physics"))
		assert.ErrorContains(t, err, "describing corpus")
	})
}

func TestServer_handleCorporaResource(t *testing.T) {
	ctx := context.Background()

	corpora := &mockCorpusManager{list: []domain.CorpusInfo{{Descriptor: domain.Descriptor{Name: "physics"}, Path: "/c/physics"}}}
	server := newTestServer(t, &mockSearchService{}, corpora, "")

	result, err := server.handleCorporaResource(ctx, makeReadResourceRequest("folio://corpora"))
	require.NoError(t, err)
	assert.Contains(t, result.Contents[0].Text, `"path": "/c/physics"`)

	corpora.list = nil
	result, err = server.handleCorporaResource(ctx, makeReadResourceRequest("folio://corpora"))
	require.NoError(t, err)
	assert.Equal(t, "[]", result.Contents[0].Text)

	corpora.err = errors.New("io")
	_, err = server.handleCorporaResource(ctx, makeReadResourceRequest("folio://corpora"))
	assert.ErrorContains(t, err, "listing corpora")
}
