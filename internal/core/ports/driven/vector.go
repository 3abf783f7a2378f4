package driven

import "github.com/custodia-labs/folio/internal/core/domain"

// VectorStore holds chunk vectors in insertion order and answers exact
// nearest-neighbour queries. It is not safe for concurrent writers; the
// corpus lock serialises mutation.
type VectorStore interface {
	// Add appends entries in order.
	Add(entries ...domain.IndexedChunk)

	// Search scores every entry by cosine similarity to query and returns
	// the top k, descending. Ties keep insertion order.
	Search(query []float32, k int) []VectorHit

	// Entries returns all entries in insertion order.
	Entries() []domain.IndexedChunk

	// Replace swaps the vector of the entry at position.
	Replace(position int, vector []float32)

	// RemoveDocument deletes every entry whose chunk belongs to path and
	// returns how many were removed. Remaining entries keep their order.
	RemoveDocument(path string) int

	// Len returns the number of entries.
	Len() int

	// Clear removes every entry.
	Clear()
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Position is the entry's insertion position.
	Position int

	// Chunk is the matched chunk.
	Chunk domain.Chunk

	// Similarity is the cosine similarity score in [-1, 1].
	Similarity float64
}
