package driven

import (
	"context"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// SourceAdapter scans and ingests one class of document origin.
type SourceAdapter interface {
	// Kind returns the source kind handled.
	Kind() domain.SourceKind

	// Scan counts candidate documents without side effects.
	// Safe to call repeatedly for previews.
	Scan(ctx context.Context, sel domain.SourceSelection) domain.ScanResult

	// Ingest adds the source's documents to target. It mutates only the
	// target it is handed and reports failure in the result.
	Ingest(ctx context.Context, target IngestTarget, sel domain.SourceSelection) domain.IngestResult
}

// IngestTarget is the part of a corpus that source adapters may mutate.
type IngestTarget interface {
	// Build extracts every supported file under the folders and indexes
	// the successful documents.
	Build(ctx context.Context, folders []domain.FolderSpec, forceRebuild bool) (domain.BuildStats, error)
}

// LibrarySyncer mirrors reference-library collections into a local folder.
// It is the boundary to the out-of-scope downloader.
type LibrarySyncer interface {
	// Preview returns the number of files per collection without copying.
	Preview(ctx context.Context, collections []string) (map[string]int, error)

	// Sync copies the collections into the mirror folder.
	Sync(ctx context.Context, collections []string) (domain.SyncReport, error)

	// MirrorDir returns the folder that receives synced files.
	MirrorDir() string
}
