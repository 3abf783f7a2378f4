// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Normaliser: Extracts text from one file format
//   - NormaliserRegistry: Selects the normaliser for a file
//   - Chunker: Splits extracted text into chunks
//   - EmbeddingService: Maps text to fixed-dimensional vectors
//   - VectorStore: Holds vectors in insertion order and scores them
//   - SnapshotStore: Persists a corpus snapshot as one unit
//   - ConfigStore: Application configuration
//   - SourceAdapter: Scans and ingests one class of document origin
//
// # Optional Interfaces
//
//   - LibrarySyncer: Mirrors a reference library before ingest. Without it
//     the remote-library source reports itself unavailable.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
