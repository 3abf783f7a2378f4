package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/core/domain"
)

func testSnapshot() *domain.Snapshot {
	now := time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC)
	return &domain.Snapshot{
		Model:      "ngram-v1",
		Dimensions: 3,
		UpdatedAt:  now,
		Chunks: []domain.IndexedChunk{
			{
				Chunk: domain.Chunk{
					DocumentPath: "/papers/bell.pdf", DocumentName: "bell.pdf", SourceTag: "literature",
					Index: 0, Total: 2, Text: "first chunk", StartWord: 0, EndWord: 2,
					Tags: &domain.StructureTags{Section: domain.SectionAbstract, HasCitation: true, Confidence: 0.9},
				},
				Vector: []float32{0.5, -0.25, 1},
			},
			{
				Chunk: domain.Chunk{
					DocumentPath: "/papers/bell.pdf", DocumentName: "bell.pdf", SourceTag: "literature",
					Index: 1, Total: 2, Text: "second chunk", StartWord: 1, EndWord: 3,
				},
				Vector: []float32{0, 0, 1},
			},
		},
		Documents: []domain.Document{
			{
				ID: "doc-1", Path: "/papers/bell.pdf", Name: "bell.pdf", SourceTag: "literature",
				Text: "first chunk text", WordCount: 3, SizeBytes: 1024, ContentHash: "abc",
				Extractor: "pdf-reader", ModifiedAt: now.Add(-time.Hour), CreatedAt: now.Add(-2 * time.Hour),
				ExtractedAt: now, Success: true,
			},
			{
				ID: "doc-2", Path: "/papers/broken.pdf", Name: "broken.pdf", SourceTag: "literature",
				Success: false, Error: "extraction failed: no text extracted", ExtractedAt: now,
			},
			{
				ID: "doc-3", Path: "/papers/copy.pdf", Name: "copy.pdf", SourceTag: "literature",
				Text: "first chunk text", ContentHash: "abc", Success: true, DuplicateOf: "/papers/bell.pdf",
			},
		},
	}
}

func TestSnapshotStore_SaveLoadRoundTrip(t *testing.T) {
	store := NewSnapshotStore()
	path := filepath.Join(t.TempDir(), "physics"+store.Extension())
	want := testSnapshot()

	require.NoError(t, store.Save(context.Background(), path, want))

	got, err := store.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, want.Model, got.Model)
	assert.Equal(t, want.Dimensions, got.Dimensions)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt))
	assert.Equal(t, want.Chunks, got.Chunks)

	require.Len(t, got.Documents, 3)
	for i := range want.Documents {
		w, g := want.Documents[i], got.Documents[i]
		assert.True(t, w.ModifiedAt.Equal(g.ModifiedAt))
		assert.True(t, w.CreatedAt.Equal(g.CreatedAt))
		assert.True(t, w.ExtractedAt.Equal(g.ExtractedAt))
		w.ModifiedAt, w.CreatedAt, w.ExtractedAt = time.Time{}, time.Time{}, time.Time{}
		g.ModifiedAt, g.CreatedAt, g.ExtractedAt = time.Time{}, time.Time{}, time.Time{}
		assert.Equal(t, w, g)
	}
}

func TestSnapshotStore_SaveReplacesAtomically(t *testing.T) {
	store := NewSnapshotStore()
	path := filepath.Join(t.TempDir(), "c.db")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, path, testSnapshot()))

	smaller := testSnapshot()
	smaller.Chunks = smaller.Chunks[:1]
	smaller.Documents = nil
	require.NoError(t, store.Save(ctx, path, smaller))

	got, err := store.Load(ctx, path)
	require.NoError(t, err)
	assert.Len(t, got.Chunks, 1)
	assert.Empty(t, got.Documents)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestSnapshotStore_SaveRejectsWrongDimensions(t *testing.T) {
	store := NewSnapshotStore()
	path := filepath.Join(t.TempDir(), "c.db")
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, path, testSnapshot()))

	bad := testSnapshot()
	bad.Chunks[1].Vector = []float32{1}
	err := store.Save(ctx, path, bad)
	assert.ErrorIs(t, err, domain.ErrPersistenceFailed)
	assert.ErrorContains(t, err, "expected 3")

	got, err := store.Load(ctx, path)
	require.NoError(t, err)
	assert.Len(t, got.Chunks, 2, "previous snapshot must survive a failed save")
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestSnapshotStore_EmptySnapshot(t *testing.T) {
	store := NewSnapshotStore()
	path := filepath.Join(t.TempDir(), "empty.db")

	require.NoError(t, store.Save(context.Background(), path, &domain.Snapshot{Model: "ngram-v1", Dimensions: 384}))

	got, err := store.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 384, got.Dimensions)
	assert.Empty(t, got.Chunks)
	assert.Empty(t, got.Documents)
	assert.True(t, got.UpdatedAt.IsZero())
}

func TestSnapshotStore_LoadErrors(t *testing.T) {
	store := NewSnapshotStore()
	dir := t.TempDir()

	_, err := store.Load(context.Background(), filepath.Join(dir, "missing.db"))
	assert.ErrorIs(t, err, domain.ErrCorpusNotFound)

	garbage := filepath.Join(dir, "garbage.db")
	require.NoError(t, os.WriteFile(garbage, []byte("this is not a database at all, just text"), 0o600))
	_, err = store.Load(context.Background(), garbage)
	assert.ErrorIs(t, err, domain.ErrPersistenceFailed)

	assert.ErrorIs(t, store.Save(context.Background(), filepath.Join(dir, "x.db"), nil), domain.ErrPersistenceFailed)
}

func TestFloat32Conversion(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3.4028235e38}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
	assert.Empty(t, bytesToFloat32Slice(nil))
}
