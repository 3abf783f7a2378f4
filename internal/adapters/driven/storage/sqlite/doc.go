// Package sqlite persists corpus snapshots as single SQLite files.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. One file holds everything a corpus needs besides its
// descriptor:
//
//   - meta: embedding model, dimensions, last update time
//   - chunks: chunk metadata and float32 little-endian vectors, in
//     insertion order
//   - documents: the full ingestion log, in append order
//
// # Atomicity
//
// Save writes a fresh database next to the target (<path>.tmp) inside one
// transaction and renames it over the target once closed. Readers never
// observe a half-written snapshot.
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Each migration is a pair of .up.sql and .down.sql files.
package sqlite
