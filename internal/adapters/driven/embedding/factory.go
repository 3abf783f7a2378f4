// Package embedding builds the configured embedding service.
package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/folio/internal/adapters/driven/embedding/ngram"
	ollamaembed "github.com/custodia-labs/folio/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/folio/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// New creates the embedding service selected by settings.
func New(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if !settings.Provider.IsValid() {
		return nil, fmt.Errorf("%w: unsupported embedding provider %q", domain.ErrConfigInvalid, settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s requires an API key", domain.ErrConfigInvalid, settings.Provider)
	}

	switch settings.Provider {
	case domain.EmbeddingProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			Dimensions:        settings.Dimensions,
			RequestsPerSecond: settings.RequestsPerSecond,
		}), nil

	case domain.EmbeddingProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:            settings.APIKey,
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			Dimensions:        settings.Dimensions,
			RequestsPerSecond: settings.RequestsPerSecond,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrConfigInvalid, err)
		}
		return svc, nil

	default:
		return ngram.New(settings.Dimensions), nil
	}
}

// NewValidated creates the embedding service and pings it. Remote
// providers that cannot be reached are reported before any work starts.
func NewValidated(ctx context.Context, settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := New(settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("embedding service %s unreachable: %w", settings.Provider, err)
	}
	return svc, nil
}
