package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driving"
	"github.com/custodia-labs/folio/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// loadedCorpus caches an opened corpus with the descriptor timestamp it
// was loaded at.
type loadedCorpus struct {
	corpus    *Corpus
	updatedAt time.Time
}

// SearchService answers queries for the chat layer. Opened corpora are
// cached and reloaded when their descriptor changes on disk.
type SearchService struct {
	manager *Manager
	topK    int

	mu     sync.Mutex
	loaded map[string]loadedCorpus
}

// NewSearchService creates a search service over the manager's corpora.
func NewSearchService(manager *Manager) *SearchService {
	topK := manager.Config().Search.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	return &SearchService{
		manager: manager,
		topK:    topK,
		loaded:  make(map[string]loadedCorpus),
	}
}

// Search returns the best matching chunks of the named corpus.
func (s *SearchService) Search(
	ctx context.Context, corpus, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Corpus: %s, query: %q", corpus, query)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}

	k := opts.K
	if k <= 0 {
		k = s.topK
	}

	c, err := s.corpus(ctx, corpus)
	if err != nil {
		return nil, err
	}

	var results []domain.SearchResult
	if len(opts.Context) > 0 {
		logger.Debug("Merging %d context turns", len(opts.Context))
		results, err = c.SearchWithContext(ctx, query, opts.Context, k)
	} else {
		results, err = c.Search(ctx, query, k)
	}
	if err != nil {
		logger.Warn("Search failed: %v", err)
		return nil, fmt.Errorf("search: %w", err)
	}

	logger.Debug("Returning %d results", len(results))
	return results, nil
}

// Statistics returns the summary of the named corpus.
func (s *SearchService) Statistics(ctx context.Context, corpus string) (domain.CorpusStats, error) {
	c, err := s.corpus(ctx, corpus)
	if err != nil {
		return domain.CorpusStats{}, err
	}
	return c.Statistics(), nil
}

func (s *SearchService) corpus(ctx context.Context, name string) (*Corpus, error) {
	desc, err := s.manager.Describe(ctx, name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.loaded[name]; ok && cached.updatedAt.Equal(desc.UpdatedAt) {
		return cached.corpus, nil
	}

	c, err := s.manager.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	s.loaded[name] = loadedCorpus{corpus: c, updatedAt: desc.UpdatedAt}
	logger.Debug("Loaded corpus %s (%d chunks)", name, c.index.Len())
	return c, nil
}
