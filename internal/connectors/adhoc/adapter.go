// Package adhoc implements the source adapter for a single folder named
// at request time.
package adhoc

import (
	"context"

	"github.com/custodia-labs/folio/internal/connectors"
	"github.com/custodia-labs/folio/internal/connectors/filesystem"
	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// Tag is the source tag carried by ad hoc documents.
const Tag = "adhoc"

// Adapter ingests the folder in SourceSelection.AdHocPath.
type Adapter struct {
	scanner driven.FileScanner
}

// New creates an ad hoc adapter.
func New(scanner driven.FileScanner) *Adapter {
	return &Adapter{scanner: scanner}
}

// Kind returns domain.SourceAdHoc.
func (a *Adapter) Kind() domain.SourceKind {
	return domain.SourceAdHoc
}

// Scan validates the folder and counts its supported files.
func (a *Adapter) Scan(ctx context.Context, sel domain.SourceSelection) domain.ScanResult {
	result := domain.ScanResult{Kind: a.Kind()}
	if err := filesystem.Validate(ctx, sel.AdHocPath); err != nil {
		result.Err = err
		return result
	}

	files, err := a.scanner.Scan(ctx, sel.AdHocPath)
	if err != nil {
		result.Err = err
		return result
	}
	result.Counts = map[string]int{Tag: len(files)}
	result.Total = len(files)
	result.Success = true
	return result
}

// Ingest validates the folder and builds it into target.
func (a *Adapter) Ingest(ctx context.Context, target driven.IngestTarget, sel domain.SourceSelection) domain.IngestResult {
	if err := filesystem.Validate(ctx, sel.AdHocPath); err != nil {
		return domain.IngestResult{Kind: a.Kind(), Err: err}
	}
	return connectors.IngestFolders(ctx, a.Kind(), target, []domain.FolderSpec{{Tag: Tag, Path: sel.AdHocPath}})
}
