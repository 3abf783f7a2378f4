// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// One corpus uses exactly one model for every chunk and query.
//
// Note: This is separate from VectorStore which stores and scores vectors.
// EmbeddingService generates vectors; VectorStore stores them.
//
// Implementations include:
//   - ngram: hashed character n-grams, in process and deterministic
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// This is more efficient than calling Embed in a loop for large batches.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536, 3072).
	// This is determined by the model and fixed for a corpus.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	// This is used at startup to verify connectivity before committing to a search mode.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
