package memory

import (
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore keeps every vector in memory and scores queries by a
// linear scan. Results are exact.
type VectorStore struct {
	mu      sync.RWMutex
	entries []domain.IndexedChunk
	norms   []float64
}

// NewVectorStore creates an empty vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{}
}

// Add appends entries in order.
func (s *VectorStore) Add(entries ...domain.IndexedChunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.entries = append(s.entries, e)
		s.norms = append(s.norms, norm(e.Vector))
	}
}

// Search returns the k entries most similar to query, descending.
// Equal scores keep insertion order.
func (s *VectorStore) Search(query []float32, k int) []driven.VectorHit {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 || len(s.entries) == 0 {
		return nil
	}

	qn := norm(query)
	hits := make([]driven.VectorHit, len(s.entries))
	for i, e := range s.entries {
		hits[i] = driven.VectorHit{
			Position:   i,
			Chunk:      e.Chunk,
			Similarity: cosine(query, e.Vector, qn, s.norms[i]),
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits
}

// Entries returns a copy of all entries in insertion order.
func (s *VectorStore) Entries() []domain.IndexedChunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.IndexedChunk, len(s.entries))
	copy(out, s.entries)
	return out
}

// Replace swaps the vector at position. Out-of-range positions are ignored.
func (s *VectorStore) Replace(position int, vector []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if position < 0 || position >= len(s.entries) {
		return
	}
	s.entries[position].Vector = vector
	s.norms[position] = norm(vector)
}

// RemoveDocument deletes the entries of one document, keeping the order
// of the rest.
func (s *VectorStore) RemoveDocument(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept, norms := s.entries[:0], s.norms[:0]
	for i, e := range s.entries {
		if e.Chunk.DocumentPath == path {
			continue
		}
		kept = append(kept, e)
		norms = append(norms, s.norms[i])
	}
	removed := len(s.entries) - len(kept)
	clear(s.entries[len(kept):])
	s.entries, s.norms = kept, norms
	return removed
}

// Len returns the number of entries.
func (s *VectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear removes every entry.
func (s *VectorStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.norms = nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 when either vector is zero or the lengths differ.
func cosine(a, b []float32, na, nb float64) float64 {
	if len(a) != len(b) || na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (na * nb)
}
