package driving

import (
	"context"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// BuildOrchestrator sequences source adapters against one build request.
type BuildOrchestrator interface {
	// Preview scans the selected sources without side effects.
	Preview(ctx context.Context, sel domain.SourceSelection) []domain.ScanResult

	// Run executes a build and reports the outcome as data.
	Run(ctx context.Context, req domain.BuildRequest, progress domain.ProgressFunc) domain.BuildResult
}
