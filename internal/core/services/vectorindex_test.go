package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/adapters/driven/embedding/ngram"
	"github.com/custodia-labs/folio/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/folio/internal/core/domain"
)

func testDoc(path, text string) domain.Document {
	return domain.Document{
		Path:      path,
		Name:      path[strings.LastIndex(path, "/")+1:],
		SourceTag: "literature",
		Text:      text,
		WordCount: len(strings.Fields(text)),
		Success:   true,
	}
}

func TestVectorIndex_Add(t *testing.T) {
	idx := newTestIndex(t)

	docs := []domain.Document{
		testDoc("/p/a.txt", words("alpha", 130)),
		{Path: "/p/failed.pdf", Success: false, Error: "extraction failed"},
		testDoc("/p/b.txt", words("beta", 30)),
		{Path: "/p/dup.txt", Success: true, Text: "x", DuplicateOf: "/p/a.txt"},
	}

	res, err := idx.Add(context.Background(), docs)
	require.NoError(t, err)

	// 130 words with 50/10 windows: ceil(120/40) = 3 chunks; 30 words: 1 chunk.
	assert.Equal(t, 2, res.Documents)
	assert.Equal(t, 4, res.Chunks)
	assert.Equal(t, 4, idx.Len())

	entries := idx.store.Entries()
	assert.Equal(t, "/p/a.txt", entries[0].Chunk.DocumentPath)
	assert.Equal(t, 2, entries[2].Chunk.Index)
	assert.Equal(t, 3, entries[2].Chunk.Total)
	assert.Equal(t, "/p/b.txt", entries[3].Chunk.DocumentPath)
	for _, e := range entries {
		assert.Len(t, e.Vector, domain.DefaultDimensions)
	}
}

func TestVectorIndex_AddEmbeddingFailure(t *testing.T) {
	idx := NewVectorIndex(newTestChunker(t),
		failingEmbedder{EmbeddingService: ngram.New(8), err: errors.New("backend down")},
		memory.NewVectorStore(), 200)

	res, err := idx.Add(context.Background(), []domain.Document{testDoc("/p/a.txt", "some words here")})
	assert.ErrorContains(t, err, "backend down")
	assert.Zero(t, res.Documents)
	assert.Zero(t, idx.Len())
}

func TestVectorIndex_AddCancelled(t *testing.T) {
	idx := newTestIndex(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.Add(ctx, []domain.Document{testDoc("/p/a.txt", "text")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, idx.Len())
}

func TestVectorIndex_SearchRanking(t *testing.T) {
	idx := newTestIndex(t)
	_, err := idx.Add(context.Background(), []domain.Document{
		testDoc("/p/classical.txt", "classical mechanics describes the motion of macroscopic bodies under forces"),
		testDoc("/p/quantum.txt", "quantum entanglement is a correlation between entangled particles that persists at distance"),
	})
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), "entangled particles", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "/p/quantum.txt", results[0].Chunk.DocumentPath)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestVectorIndex_SearchEdgeCases(t *testing.T) {
	idx := newTestIndex(t)

	results, err := idx.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results, "empty index")

	_, err = idx.Add(context.Background(), []domain.Document{testDoc("/p/a.txt", "graphene lattice")})
	require.NoError(t, err)

	results, err = idx.Search(context.Background(), "graphene", 0)
	require.NoError(t, err)
	assert.Empty(t, results, "k of zero")

	results, err = idx.Search(context.Background(), "graphene", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1, "k larger than the index")
}

func TestBuildContext(t *testing.T) {
	tests := []struct {
		name   string
		recent []string
		budget int
		want   string
	}{
		{"no turns", nil, 200, ""},
		{"zero budget", []string{"hello"}, 0, ""},
		{"all fit", []string{"first turn", "second turn"}, 200, "first turn second turn"},
		{"oldest dropped", []string{"old old old", "newer", "newest"}, 12, "newer newest"},
		{"newest truncated", []string{"abcdefghij"}, 4, "abcd"},
		{"rune boundary", []string{"ψψψψψψ"}, 3, "ψψψ"},
		{"blank turns skipped", []string{"kept", "  ", ""}, 200, "kept"},
		{"whitespace collapsed", []string{"a \n\t b"}, 200, "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildContext(tt.recent, tt.budget))
		})
	}
}

func TestVectorIndex_SearchWithContext(t *testing.T) {
	idx := newTestIndex(t)
	_, err := idx.Add(context.Background(), []domain.Document{
		testDoc("/p/superconductors.txt", "cooper pairs form in superconductors below the critical temperature"),
		testDoc("/p/galaxies.txt", "spiral galaxies rotate faster than visible matter predicts"),
	})
	require.NoError(t, err)

	results, err := idx.SearchWithContext(context.Background(), "tell me more",
		[]string{"we discussed cooper pairs", "and superconductors"}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/p/superconductors.txt", results[0].Chunk.DocumentPath)
}

func TestVectorIndex_SnapshotRestore(t *testing.T) {
	src := newTestIndex(t)
	_, err := src.Add(context.Background(), []domain.Document{testDoc("/p/a.txt", words("alpha", 90))})
	require.NoError(t, err)

	snap := src.Snapshot()
	assert.Equal(t, "ngram-v1", snap.Model)
	assert.Equal(t, domain.DefaultDimensions, snap.Dimensions)

	dst := newTestIndex(t)
	require.NoError(t, dst.Restore(snap))
	assert.Equal(t, src.Len(), dst.Len())

	want, err := src.Search(context.Background(), "alpha", 3)
	require.NoError(t, err)
	got, err := dst.Search(context.Background(), "alpha", 3)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Chunk, got[i].Chunk)
		assert.InDelta(t, want[i].Score, got[i].Score, 1e-6)
	}
}

func TestVectorIndex_RestoreModelMismatch(t *testing.T) {
	idx := newTestIndex(t)
	_, err := idx.Add(context.Background(), []domain.Document{testDoc("/p/a.txt", "kept words")})
	require.NoError(t, err)

	tests := []struct {
		name string
		snap *domain.Snapshot
	}{
		{"other model", &domain.Snapshot{Model: "text-embedding-3-small", Dimensions: domain.DefaultDimensions}},
		{"other dimensions", &domain.Snapshot{Model: "ngram-v1", Dimensions: 16}},
		{"bad vector", &domain.Snapshot{Model: "ngram-v1", Dimensions: domain.DefaultDimensions,
			Chunks: []domain.IndexedChunk{{Vector: []float32{1}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				err := idx.Restore(tt.snap)
				assert.ErrorIs(t, err, domain.ErrModelMismatch)
			})
			assert.Equal(t, 1, idx.Len(), "state unchanged")
		})
	}
}

func TestVectorIndex_Reembed(t *testing.T) {
	idx := NewVectorIndex(newTestChunker(t), ngram.New(32), memory.NewVectorStore(), 200)
	foreign := &domain.Snapshot{
		Model:      "old-model",
		Dimensions: 4,
		Chunks: []domain.IndexedChunk{
			{Chunk: domain.Chunk{DocumentPath: "/p/a.txt", Text: "spin glass", EndWord: 2}, Vector: []float32{1, 0, 0, 0}},
			{Chunk: domain.Chunk{DocumentPath: "/p/b.txt", Text: "dark matter", EndWord: 2}, Vector: []float32{0, 1, 0, 0}},
		},
	}
	require.NoError(t, idx.restore(foreign, false))

	n, err := idx.Reembed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	snap := idx.Snapshot()
	assert.Equal(t, "ngram-v1", snap.Model)
	for _, c := range snap.Chunks {
		assert.Len(t, c.Vector, 32)
	}

	results, err := idx.Search(context.Background(), "dark matter", 1)
	require.NoError(t, err)
	assert.Equal(t, "/p/b.txt", results[0].Chunk.DocumentPath)
}

func TestVectorIndex_Statistics(t *testing.T) {
	idx := newTestIndex(t)
	_, err := idx.Add(context.Background(), []domain.Document{
		testDoc("/p/a.txt", words("alpha", 130)),
		testDoc("/p/b.txt", words("beta", 30)),
	})
	require.NoError(t, err)

	first := idx.Statistics()
	assert.Equal(t, 4, first.TotalChunks)
	assert.Equal(t, 2, first.TotalDocuments)
	// Chunk lengths 50, 50, 50 and 30.
	assert.InDelta(t, 45.0, first.AvgChunkWords, 1e-9)
	assert.Equal(t, "ngram-v1", first.Model)
	assert.False(t, first.UpdatedAt.IsZero())

	assert.Equal(t, first, idx.Statistics(), "statistics must be idempotent")

	idx.Clear()
	assert.Zero(t, idx.Statistics().TotalChunks)
}
