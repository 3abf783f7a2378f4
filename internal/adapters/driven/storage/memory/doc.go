// Package memory provides in-memory implementations of driven ports.
//
// VectorStore is the corpus vector index used at runtime; ConfigStore
// backs configuration in tests.
package memory
