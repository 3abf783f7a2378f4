package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	stats   domain.CorpusStats
	err     error

	corpus string
	query  string
	opts   domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	corpus, query string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.corpus, m.query, m.opts = corpus, query, opts
	return m.results, m.err
}

func (m *mockSearchService) Statistics(_ context.Context, corpus string) (domain.CorpusStats, error) {
	m.corpus = corpus
	return m.stats, m.err
}

// mockCorpusManager is a mock implementation of driving.CorpusManager.
type mockCorpusManager struct {
	list []domain.CorpusInfo
	desc domain.Descriptor
	err  error
	name string
}

func (m *mockCorpusManager) List(_ context.Context) ([]domain.CorpusInfo, error) {
	return m.list, m.err
}

func (m *mockCorpusManager) Info(_ context.Context, _ string) (domain.CorpusStats, error) {
	return domain.CorpusStats{}, m.err
}

func (m *mockCorpusManager) Describe(_ context.Context, name string) (domain.Descriptor, error) {
	m.name = name
	return m.desc, m.err
}

func (m *mockCorpusManager) CreateEmpty(_ context.Context, _ string) (domain.Descriptor, error) {
	return m.desc, m.err
}

func (m *mockCorpusManager) AddFile(_ context.Context, _, _, _ string) (domain.Document, error) {
	return domain.Document{}, m.err
}

func (m *mockCorpusManager) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockCorpusManager) Rename(_ context.Context, _, _ string) error {
	return m.err
}

func (m *mockCorpusManager) Migrate(_ context.Context, _ string, _ domain.MigrateOptions) (domain.MigrateResult, error) {
	return domain.MigrateResult{}, m.err
}

func newTestServer(t *testing.T, search *mockSearchService, corpora *mockCorpusManager, corpus string) *Server {
	t.Helper()
	s, err := NewServer(&Ports{Search: search, Corpora: corpora}, corpus)
	require.NoError(t, err)
	return s
}
