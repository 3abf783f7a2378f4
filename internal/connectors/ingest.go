package connectors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/logger"
)

// IngestFolders builds folders into target and reports the outcome as a
// result record for kind.
func IngestFolders(
	ctx context.Context, kind domain.SourceKind, target driven.IngestTarget, folders []domain.FolderSpec,
) domain.IngestResult {
	result := domain.IngestResult{Kind: kind}
	if len(folders) == 0 {
		result.Err = fmt.Errorf("%w: no usable folders", domain.ErrSourceUnavailable)
		return result
	}

	stats, err := target.Build(ctx, folders, false)
	result.Added = stats.Succeeded
	result.Failed = stats.Failed
	result.ChunksCreated = stats.ChunksAdded
	if err != nil {
		result.Err = err
		return result
	}

	logger.Debug("%s: %d documents, %d added, %d failed, %d duplicates",
		kind, stats.Documents, stats.Succeeded, stats.Failed, stats.Duplicates)
	result.Success = true
	return result
}

// CountFiles scans each folder and returns the file count per tag.
// Folders that fail to scan are reported in the error map instead.
func CountFiles(
	ctx context.Context, scanner driven.FileScanner, folders []domain.FolderSpec,
) (counts map[string]int, failed map[string]error) {
	counts = make(map[string]int, len(folders))
	failed = make(map[string]error)
	for _, f := range folders {
		files, err := scanner.Scan(ctx, f.Path)
		if err != nil {
			failed[f.Tag] = err
			continue
		}
		counts[f.Tag] += len(files)
	}
	return counts, failed
}

// Sum adds up the values of counts.
func Sum(counts map[string]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}
