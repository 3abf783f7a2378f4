package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/adapters/driven/embedding/ngram"
	"github.com/custodia-labs/folio/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/folio/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/folio/internal/connectors/filesystem"
	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/normalisers"
	"github.com/custodia-labs/folio/internal/postprocessors/chunker"
)

func writeTestFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// words returns n distinct filler words, prefixed so documents differ.
func words(prefix string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = prefix + strings.Repeat("x", i%7)
	}
	return strings.Join(parts, " ")
}

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	scanner, err := filesystem.NewScanner(domain.DefaultExtensions, nil)
	require.NoError(t, err)
	return NewExtractor(normalisers.NewDefaultRegistry(false), scanner)
}

func newTestChunker(t *testing.T) driven.Chunker {
	t.Helper()
	c, err := chunker.NewFixedWindow(50, 10)
	require.NoError(t, err)
	return c
}

func newTestIndex(t *testing.T) *VectorIndex {
	t.Helper()
	return NewVectorIndex(newTestChunker(t), ngram.New(domain.DefaultDimensions), memory.NewVectorStore(), 200)
}

func testConfig(t *testing.T) domain.Config {
	t.Helper()
	cfg := domain.DefaultConfig(t.TempDir())
	cfg.Chunking.Strategy = domain.ChunkStrategyFixedWindow
	cfg.Chunking.Size = 50
	cfg.Chunking.Overlap = 10
	cfg.Sources.LocalFolders = map[string]string{}
	return cfg
}

func newTestManager(t *testing.T, cfg domain.Config) *Manager {
	t.Helper()
	m, err := NewManager(cfg, ManagerDeps{
		Extractor:  newTestExtractor(t),
		Chunker:    newTestChunker(t),
		Embedder:   ngram.New(cfg.Embedding.Dimensions),
		Snapshots:  sqlite.NewSnapshotStore(),
		NewStore:   func() driven.VectorStore { return memory.NewVectorStore() },
		NewChunker: chunker.New,
		Locks:      NewLockRegistry(),
	})
	require.NoError(t, err)
	return m
}

// failingEmbedder is an embedding service that always errors.
type failingEmbedder struct {
	driven.EmbeddingService
	err error
}

func (f failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, f.err
}

func (f failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, f.err
}
