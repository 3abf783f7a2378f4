package domain

import "time"

// Operation selects how a build request treats existing corpora.
type Operation string

// Build operations.
const (
	// OperationCreate builds a brand new corpus.
	OperationCreate Operation = "create"

	// OperationReplace clears an existing corpus and rebuilds it.
	OperationReplace Operation = "replace"

	// OperationAppend adds to an existing corpus.
	OperationAppend Operation = "append"
)

// IsValid returns true if the operation is recognised.
func (o Operation) IsValid() bool {
	switch o {
	case OperationCreate, OperationReplace, OperationAppend:
		return true
	default:
		return false
	}
}

// NeedsExisting reports whether the operation starts from an existing corpus.
func (o Operation) NeedsExisting() bool {
	return o == OperationReplace || o == OperationAppend
}

// PartialSuffix marks corpora built while at least one source failed.
const PartialSuffix = "_partial"

// BuildRequest is one multi-source build.
type BuildRequest struct {
	// Name is the requested corpus name.
	Name string

	// Operation is create, replace or append. Empty means create.
	Operation Operation

	// ExistingName is the corpus to replace or append to.
	ExistingName string

	// Sources selects the sources to ingest.
	Sources SourceSelection
}

// ProgressFunc receives coarse progress updates. It is purely
// observational and never influences control flow.
type ProgressFunc func(message string, percent float64)

// BuildResult is the outcome of one orchestrated build.
type BuildResult struct {
	// RunID identifies this build in logs.
	RunID string

	// Success is true when a corpus was persisted.
	Success bool

	// Name is the persisted corpus name, which ends in PartialSuffix when
	// IsPartial is set.
	Name string

	// Path is the corpus directory.
	Path string

	// IsPartial is true when at least one source failed and one succeeded.
	IsPartial bool

	// TotalDocuments and TotalChunks come from the final statistics.
	TotalDocuments int
	TotalChunks    int

	// Scans holds the dry-run preview of every selected source.
	Scans []ScanResult

	// Ingests holds the result of every processed source.
	Ingests []IngestResult

	// SourcesProcessed and SourcesFailed list sources by outcome.
	SourcesProcessed []SourceKind
	SourcesFailed    []SourceKind

	// Errors collects human-readable messages from every stage.
	Errors []string

	// Err is the fatal error when Success is false.
	Err error

	// Duration is the wall time of the build.
	Duration time.Duration
}
