package driving

import (
	"context"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// SearchService is the consumer contract used by the chat layer.
type SearchService interface {
	// Search returns chunks of the named corpus ranked by similarity.
	Search(ctx context.Context, corpus, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Statistics returns the summary of the named corpus.
	Statistics(ctx context.Context, corpus string) (domain.CorpusStats, error)
}
