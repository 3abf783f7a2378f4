// Package domain defines the core business entities for folio.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: one ingested file and the outcome of its extraction
//   - Chunk: a contiguous span of a document's words
//   - Descriptor: the persisted identity of a named corpus
//   - Snapshot: chunks, vectors and the document log saved as one unit
//   - Config: the explicit configuration value threaded through services
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
