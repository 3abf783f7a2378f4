package driving

import (
	"context"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// CorpusManager manages named corpora on disk.
type CorpusManager interface {
	// List returns every valid corpus under the base directory.
	List(ctx context.Context) ([]domain.CorpusInfo, error)

	// Info returns statistics for one corpus.
	Info(ctx context.Context, name string) (domain.CorpusStats, error)

	// Describe returns the descriptor of one corpus without loading it.
	Describe(ctx context.Context, name string) (domain.Descriptor, error)

	// CreateEmpty creates and persists an empty corpus.
	CreateEmpty(ctx context.Context, name string) (domain.Descriptor, error)

	// AddFile extracts one file into a corpus and saves it.
	AddFile(ctx context.Context, name, path, tag string) (domain.Document, error)

	// Delete removes a corpus and all its files.
	Delete(ctx context.Context, name string) error

	// Rename moves a corpus to a new name.
	Rename(ctx context.Context, oldName, newName string) error

	// Migrate brings a corpus up to the current layout and model.
	Migrate(ctx context.Context, name string, opts domain.MigrateOptions) (domain.MigrateResult, error)
}
