// Package remotelibrary implements the source adapter for a reference
// library. Files are mirrored into a local folder by a driven.LibrarySyncer
// and then ingested like a local folder.
package remotelibrary

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/folio/internal/connectors"
	"github.com/custodia-labs/folio/internal/connectors/filesystem"
	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/logger"
)

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// Tag is the source tag carried by library documents.
const Tag = "remote_library"

// Adapter syncs and ingests reference-library collections.
type Adapter struct {
	syncer  driven.LibrarySyncer
	scanner driven.FileScanner
}

// New creates a library adapter. A nil syncer makes the source
// unavailable.
func New(syncer driven.LibrarySyncer, scanner driven.FileScanner) *Adapter {
	return &Adapter{syncer: syncer, scanner: scanner}
}

// Kind returns domain.SourceRemoteLibrary.
func (a *Adapter) Kind() domain.SourceKind {
	return domain.SourceRemoteLibrary
}

// Scan previews the collections and counts files already mirrored.
// Nothing is copied.
func (a *Adapter) Scan(ctx context.Context, sel domain.SourceSelection) domain.ScanResult {
	result := domain.ScanResult{Kind: a.Kind(), Info: map[string]int{}}
	if a.syncer == nil {
		result.Err = fmt.Errorf("%w: no reference library configured", domain.ErrSourceUnavailable)
		return result
	}

	counts, err := a.syncer.Preview(ctx, sel.Collections)
	if err != nil {
		result.Err = fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
		return result
	}

	if files, err := a.scanner.Scan(ctx, a.syncer.MirrorDir()); err == nil {
		result.Info["mirrored"] = len(files)
	}

	result.Counts = counts
	result.Total = connectors.Sum(counts)
	result.Success = true
	return result
}

// Ingest syncs the collections into the mirror, then builds each synced
// collection's mirror folder into target. Collections mirrored earlier
// but not selected now are left out. A failed sync leaves target
// untouched.
func (a *Adapter) Ingest(ctx context.Context, target driven.IngestTarget, sel domain.SourceSelection) domain.IngestResult {
	result := domain.IngestResult{Kind: a.Kind()}
	if a.syncer == nil {
		result.Err = fmt.Errorf("%w: no reference library configured", domain.ErrSourceUnavailable)
		return result
	}

	report, err := a.syncer.Sync(ctx, sel.Collections)
	if err != nil {
		result.Err = fmt.Errorf("library sync: %w", err)
		return result
	}
	logger.Info("Library sync: %d copied, %d unchanged, %d failed", report.Copied, report.Skipped, report.Failed)

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	mirror := a.syncer.MirrorDir()
	if err := filesystem.Validate(ctx, mirror); err != nil {
		result.Err = err
		return result
	}
	if len(report.Collections) == 0 {
		result.Err = fmt.Errorf("%w: no library collections selected", domain.ErrSourceUnavailable)
		return result
	}

	folders := make([]domain.FolderSpec, len(report.Collections))
	for i, name := range report.Collections {
		folders[i] = domain.FolderSpec{Tag: Tag, Path: filepath.Join(mirror, name)}
	}
	return connectors.IngestFolders(ctx, a.Kind(), target, folders)
}
