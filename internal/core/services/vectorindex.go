package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/logger"
)

// IndexAddResult reports what one Add call indexed.
type IndexAddResult struct {
	// Documents is the number of documents whose chunks were stored.
	Documents int

	// Chunks is the number of chunks stored.
	Chunks int
}

// VectorIndex chunks documents, embeds the chunks and answers exact
// cosine queries. The embedding model is fixed for its lifetime.
type VectorIndex struct {
	chunker       driven.Chunker
	embedder      driven.EmbeddingService
	store         driven.VectorStore
	contextBudget int
	updatedAt     time.Time
	now           func() time.Time
}

// NewVectorIndex creates an index. contextBudget caps the characters of
// conversation context merged into a query by SearchWithContext.
func NewVectorIndex(
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	contextBudget int,
) *VectorIndex {
	return &VectorIndex{
		chunker:       chunker,
		embedder:      embedder,
		store:         store,
		contextBudget: contextBudget,
		now:           time.Now,
	}
}

// Model returns the embedding model identifier.
func (v *VectorIndex) Model() string {
	return v.embedder.ModelName()
}

// Dimensions returns the vector dimensionality.
func (v *VectorIndex) Dimensions() int {
	return v.embedder.Dimensions()
}

// Chunker returns the chunker in use.
func (v *VectorIndex) Chunker() driven.Chunker {
	return v.chunker
}

// Len returns the number of stored chunks.
func (v *VectorIndex) Len() int {
	return v.store.Len()
}

// Add chunks and embeds every indexable document in order. A document's
// chunks are stored only once all of them are embedded, so on error the
// result counts exactly the documents stored before the failure.
func (v *VectorIndex) Add(ctx context.Context, docs []domain.Document) (IndexAddResult, error) {
	var result IndexAddResult

	for _, doc := range docs {
		if !doc.Indexable() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		chunks := v.chunker.Chunk(doc.Text, domain.ChunkSource{
			Path:      doc.Path,
			Name:      doc.Name,
			SourceTag: doc.SourceTag,
		})
		if len(chunks) == 0 {
			continue
		}

		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}

		vectors, err := v.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return result, fmt.Errorf("embed %s: %w", doc.Name, err)
		}
		if len(vectors) != len(chunks) {
			return result, fmt.Errorf("embed %s: got %d vectors for %d chunks", doc.Name, len(vectors), len(chunks))
		}

		entries := make([]domain.IndexedChunk, len(chunks))
		for i, c := range chunks {
			if len(vectors[i]) != v.Dimensions() {
				return result, fmt.Errorf("embed %s: chunk %d has %d dimensions, expected %d",
					doc.Name, i, len(vectors[i]), v.Dimensions())
			}
			entries[i] = domain.IndexedChunk{Chunk: c, Vector: vectors[i]}
		}

		v.store.Add(entries...)
		result.Documents++
		result.Chunks += len(entries)
		logger.Debug("Indexed %s: %d chunks", doc.Name, len(entries))
	}

	if result.Chunks > 0 {
		v.updatedAt = v.now()
	}
	return result, nil
}

// Search returns the k chunks most similar to query, best first.
func (v *VectorIndex) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if k <= 0 || v.store.Len() == 0 {
		return []domain.SearchResult{}, nil
	}

	vector, err := v.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits := v.store.Search(vector, k)
	results := make([]domain.SearchResult, len(hits))
	for i, h := range hits {
		results[i] = domain.SearchResult{Chunk: h.Chunk, Score: h.Similarity}
	}
	return results, nil
}

// SearchWithContext merges the most recent conversation turns into the
// query before searching. recent is ordered oldest first.
func (v *VectorIndex) SearchWithContext(
	ctx context.Context, query string, recent []string, k int,
) ([]domain.SearchResult, error) {
	if extra := BuildContext(recent, v.contextBudget); extra != "" {
		query = query + " " + extra
	}
	return v.Search(ctx, query, k)
}

// BuildContext joins the newest turns that fit within budget characters,
// keeping them in conversation order. Older turns are dropped first. A
// newest turn longer than the budget is cut on a rune boundary.
func BuildContext(recent []string, budget int) string {
	if budget <= 0 {
		return ""
	}

	var picked []string
	used := 0
	for i := len(recent) - 1; i >= 0; i-- {
		turn := strings.Join(strings.Fields(recent[i]), " ")
		if turn == "" {
			continue
		}

		n := utf8.RuneCountInString(turn)
		if len(picked) > 0 {
			n++ // separator
		}
		if used+n > budget {
			if len(picked) == 0 {
				picked = append(picked, truncateRunes(turn, budget))
			}
			break
		}
		picked = append(picked, turn)
		used += n
	}

	slices.Reverse(picked)
	return strings.Join(picked, " ")
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Snapshot exports the chunks, vectors and model identity as one unit.
// Documents are filled in by the owning corpus.
func (v *VectorIndex) Snapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Model:      v.Model(),
		Dimensions: v.Dimensions(),
		Chunks:     v.store.Entries(),
		UpdatedAt:  v.updatedAt,
	}
}

// Restore replaces the index contents with snap. A snapshot produced by
// another model returns ErrModelMismatch and leaves the index unchanged.
func (v *VectorIndex) Restore(snap *domain.Snapshot) error {
	return v.restore(snap, true)
}

func (v *VectorIndex) restore(snap *domain.Snapshot, checkModel bool) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", domain.ErrPersistenceFailed)
	}
	if checkModel {
		if snap.Model != v.Model() || snap.Dimensions != v.Dimensions() {
			return fmt.Errorf("%w: snapshot uses %s (%d dimensions), index uses %s (%d dimensions)",
				domain.ErrModelMismatch, snap.Model, snap.Dimensions, v.Model(), v.Dimensions())
		}
		for i, c := range snap.Chunks {
			if len(c.Vector) != v.Dimensions() {
				return fmt.Errorf("%w: chunk %d has %d dimensions", domain.ErrModelMismatch, i, len(c.Vector))
			}
		}
	}

	v.store.Clear()
	v.store.Add(snap.Chunks...)
	v.updatedAt = snap.UpdatedAt
	return nil
}

// absorb appends entries produced by the same model.
func (v *VectorIndex) absorb(entries []domain.IndexedChunk) {
	if len(entries) == 0 {
		return
	}
	v.store.Add(entries...)
	v.updatedAt = v.now()
}

// Reembed recomputes every stored vector with the current model. Vectors
// are swapped in only after every chunk has been embedded.
func (v *VectorIndex) Reembed(ctx context.Context) (int, error) {
	entries := v.store.Entries()
	if len(entries) == 0 {
		return 0, nil
	}

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Chunk.Text
	}

	vectors, err := v.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("reembed: %w", err)
	}
	if len(vectors) != len(entries) {
		return 0, fmt.Errorf("reembed: got %d vectors for %d chunks", len(vectors), len(entries))
	}
	for i, vec := range vectors {
		if len(vec) != v.Dimensions() {
			return 0, fmt.Errorf("reembed: chunk %d has %d dimensions, expected %d", i, len(vec), v.Dimensions())
		}
	}

	for i, vec := range vectors {
		v.store.Replace(i, vec)
	}
	v.updatedAt = v.now()
	return len(vectors), nil
}

// Statistics derives a summary of the index.
func (v *VectorIndex) Statistics() domain.IndexStats {
	entries := v.store.Entries()
	stats := domain.IndexStats{
		TotalChunks: len(entries),
		Model:       v.Model(),
		Dimensions:  v.Dimensions(),
		UpdatedAt:   v.updatedAt,
	}

	docs := make(map[string]struct{})
	words := 0
	for _, e := range entries {
		docs[e.Chunk.DocumentPath] = struct{}{}
		words += e.Chunk.WordCount()
	}
	stats.TotalDocuments = len(docs)
	if len(entries) > 0 {
		stats.AvgChunkWords = float64(words) / float64(len(entries))
	}
	return stats
}

// RemoveDocument drops every chunk of the document at path.
func (v *VectorIndex) RemoveDocument(path string) int {
	n := v.store.RemoveDocument(path)
	if n > 0 {
		v.updatedAt = v.now()
	}
	return n
}

// Clear removes every chunk.
func (v *VectorIndex) Clear() {
	v.store.Clear()
	v.updatedAt = v.now()
}
