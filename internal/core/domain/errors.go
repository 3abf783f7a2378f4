package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrExtractionFailed indicates text could not be pulled out of a file.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrSourceUnavailable indicates a source could not be scanned or ingested.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrPersistenceFailed indicates a corpus could not be written or read.
	ErrPersistenceFailed = errors.New("persistence failed")

	// ErrConfigInvalid indicates the configuration value failed validation.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrInvalidChunking indicates chunk size and overlap are inconsistent.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrModelMismatch indicates a snapshot was embedded with another model.
	// Callers may recover by re-embedding.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// Corpus Errors.

	// ErrCorpusNotFound indicates no corpus exists under the given name.
	ErrCorpusNotFound = errors.New("corpus not found")

	// ErrCorpusExists indicates a corpus already exists under the given name.
	ErrCorpusExists = errors.New("corpus already exists")

	// ErrCorpusLocked indicates another writer holds the corpus.
	ErrCorpusLocked = errors.New("corpus is locked by another writer")

	// ErrInvalidName indicates a corpus name that cannot map to a directory.
	ErrInvalidName = errors.New("invalid corpus name")

	// Build Errors.

	// ErrNoSourcesSelected indicates a build request selected no sources.
	ErrNoSourcesSelected = errors.New("no sources selected")

	// ErrNoDocuments indicates the scan found zero candidate documents.
	ErrNoDocuments = errors.New("no documents found in selected sources")

	// ErrUnsupportedFormat indicates a file type with no registered extractor.
	ErrUnsupportedFormat = errors.New("unsupported format")
)
