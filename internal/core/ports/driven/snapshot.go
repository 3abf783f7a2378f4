package driven

import (
	"context"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// SnapshotStore persists a corpus snapshot. Chunks, vectors and the
// document log are written and read as one atomic unit.
type SnapshotStore interface {
	// Save replaces the snapshot at path.
	Save(ctx context.Context, path string, snap *domain.Snapshot) error

	// Load reads the snapshot at path.
	// Returns domain.ErrCorpusNotFound if no snapshot exists.
	Load(ctx context.Context, path string) (*domain.Snapshot, error)

	// Extension is the snapshot file suffix (e.g. ".db").
	Extension() string
}
