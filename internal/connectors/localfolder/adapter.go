// Package localfolder implements the source adapter for the configured
// named folders (tag to path).
package localfolder

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/folio/internal/connectors"
	"github.com/custodia-labs/folio/internal/connectors/filesystem"
	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/logger"
)

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// Adapter ingests the configured local folders.
type Adapter struct {
	folders map[string]string
	scanner driven.FileScanner
}

// New creates an adapter over folders, a map from source tag to path.
func New(folders map[string]string, scanner driven.FileScanner) *Adapter {
	copied := make(map[string]string, len(folders))
	for tag, path := range folders {
		copied[tag] = path
	}
	return &Adapter{folders: copied, scanner: scanner}
}

// Kind returns domain.SourceLocal.
func (a *Adapter) Kind() domain.SourceKind {
	return domain.SourceLocal
}

// Folders returns the folders a selection refers to, sorted by tag. An
// empty LocalTags selects every configured folder.
func (a *Adapter) Folders(sel domain.SourceSelection) []domain.FolderSpec {
	var tags []string
	if len(sel.LocalTags) == 0 {
		for tag := range a.folders {
			tags = append(tags, tag)
		}
	} else {
		for _, tag := range sel.LocalTags {
			if _, ok := a.folders[tag]; !ok {
				logger.Warn("Unknown local folder tag %q", tag)
				continue
			}
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)

	specs := make([]domain.FolderSpec, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		specs = append(specs, domain.FolderSpec{Tag: tag, Path: a.folders[tag]})
	}
	return specs
}

// usable drops folders that do not exist or cannot be read.
func (a *Adapter) usable(ctx context.Context, sel domain.SourceSelection) []domain.FolderSpec {
	var specs []domain.FolderSpec
	for _, f := range a.Folders(sel) {
		if err := filesystem.Validate(ctx, f.Path); err != nil {
			logger.Warn("Skipping local folder %s: %v", f.Tag, err)
			continue
		}
		specs = append(specs, f)
	}
	return specs
}

// Scan counts supported files per tag.
func (a *Adapter) Scan(ctx context.Context, sel domain.SourceSelection) domain.ScanResult {
	result := domain.ScanResult{Kind: a.Kind(), Info: map[string]int{}}

	specs := a.usable(ctx, sel)
	result.Info["skipped_folders"] = len(a.Folders(sel)) - len(specs)
	if len(specs) == 0 {
		result.Err = fmt.Errorf("%w: no local folder is usable", domain.ErrSourceUnavailable)
		return result
	}

	counts, failed := connectors.CountFiles(ctx, a.scanner, specs)
	for tag, err := range failed {
		logger.Warn("Scan of local folder %s failed: %v", tag, err)
	}
	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	result.Counts = counts
	result.Total = connectors.Sum(counts)
	result.Success = true
	return result
}

// Ingest builds every usable folder into target.
func (a *Adapter) Ingest(ctx context.Context, target driven.IngestTarget, sel domain.SourceSelection) domain.IngestResult {
	return connectors.IngestFolders(ctx, a.Kind(), target, a.usable(ctx, sel))
}
