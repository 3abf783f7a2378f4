package driven

import "github.com/custodia-labs/folio/internal/core/domain"

// Chunker splits extracted text into ordered chunks sized in words.
// Output is deterministic for identical input and configuration.
type Chunker interface {
	// Strategy identifies the implementation.
	Strategy() domain.ChunkStrategy

	// Size returns the target chunk length in words.
	Size() int

	// Overlap returns the overlap between consecutive chunks in words.
	Overlap() int

	// Chunk splits text. Indices run 0..len-1 and Total equals len.
	Chunk(text string, src domain.ChunkSource) []domain.Chunk
}
