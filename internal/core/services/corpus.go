package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/logger"
)

// Ensure Corpus can be handed to source adapters.
var _ driven.IngestTarget = (*Corpus)(nil)

// DescriptorSuffix is appended to the corpus name to form the descriptor
// file name.
const DescriptorSuffix = "_config.json"

// Corpus is a named, persistable knowledge base: an extractor, a vector
// index and the append-only document log. It is not safe for concurrent
// writers; the lock registry serialises them.
type Corpus struct {
	name       string
	dir        string
	descriptor domain.Descriptor
	extractor  *Extractor
	index      *VectorIndex
	snapshots  driven.SnapshotStore
	documents  []domain.Document
	hashes     map[string]string
	now        func() time.Time
}

// NewCorpus creates an empty in-memory corpus stored under dir.
func NewCorpus(
	name, dir string,
	extractor *Extractor,
	index *VectorIndex,
	snapshots driven.SnapshotStore,
) *Corpus {
	c := &Corpus{
		name:      name,
		dir:       dir,
		extractor: extractor,
		index:     index,
		snapshots: snapshots,
		hashes:    make(map[string]string),
		now:       time.Now,
	}
	created := c.now()
	c.descriptor = domain.Descriptor{
		Name:      name,
		CreatedAt: created,
		UpdatedAt: created,
	}
	c.refreshDescriptor()
	return c
}

// Name returns the corpus name.
func (c *Corpus) Name() string { return c.name }

// Dir returns the corpus directory.
func (c *Corpus) Dir() string { return c.dir }

// Descriptor returns the current descriptor.
func (c *Corpus) Descriptor() domain.Descriptor {
	c.refreshDescriptor()
	return c.descriptor
}

// Documents returns a copy of the ingestion log.
func (c *Corpus) Documents() []domain.Document {
	return append([]domain.Document(nil), c.documents...)
}

// SnapshotPath returns the snapshot file location.
func (c *Corpus) SnapshotPath() string {
	return filepath.Join(c.dir, c.name+c.snapshots.Extension())
}

// DescriptorPath returns the descriptor file location.
func (c *Corpus) DescriptorPath() string {
	return filepath.Join(c.dir, c.name+DescriptorSuffix)
}

// Build extracts every supported file under the folders, in order, and
// indexes the successful documents that are not duplicates. A folder that
// cannot be scanned is skipped; the build fails only if every folder does.
func (c *Corpus) Build(ctx context.Context, folders []domain.FolderSpec, forceRebuild bool) (domain.BuildStats, error) {
	if forceRebuild {
		c.Clear()
	}

	var docs []domain.Document
	var folderErrs []error
	for _, f := range folders {
		if err := ctx.Err(); err != nil {
			return domain.BuildStats{}, err
		}

		logger.Info("Processing folder %s (%s)", f.Tag, f.Path)
		found, err := c.extractor.ProcessDir(ctx, f.Path, f.Tag)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.BuildStats{}, ctxErr
		}
		if err != nil {
			logger.Warn("Skipping folder %s: %v", f.Path, err)
			folderErrs = append(folderErrs, fmt.Errorf("folder %s: %w", f.Tag, err))
			continue
		}
		docs = append(docs, found...)
	}
	if len(folders) > 0 && len(folderErrs) == len(folders) {
		return domain.BuildStats{}, errors.Join(folderErrs...)
	}

	return c.ingest(ctx, docs)
}

// AddOne extracts and indexes a single file. The corpus is not saved.
func (c *Corpus) AddOne(ctx context.Context, path, tag string) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return domain.Document{}, err
	}

	doc := c.extractor.Process(ctx, path, tag)
	stats, err := c.ingest(ctx, []domain.Document{doc})
	doc = c.documents[len(c.documents)-1]
	if err != nil {
		return doc, err
	}
	if stats.Duplicates > 0 {
		logger.Info("%s duplicates %s, not indexed", doc.Name, doc.DuplicateOf)
	}
	return doc, nil
}

// ingest marks duplicates, indexes the rest and appends every document to
// the log. Documents the index could not take are logged as failures.
func (c *Corpus) ingest(ctx context.Context, docs []domain.Document) (domain.BuildStats, error) {
	stats := domain.BuildStats{Documents: len(docs)}

	for _, d := range docs {
		if d.Success && d.ContentHash != "" {
			c.supersede(d.Path, d.ContentHash)
		}
	}

	batch := make(map[string]string)
	for i := range docs {
		d := &docs[i]
		if !d.Success || d.ContentHash == "" {
			continue
		}
		if orig, ok := c.hashes[d.ContentHash]; ok {
			d.DuplicateOf = orig
		} else if orig, ok := batch[d.ContentHash]; ok {
			d.DuplicateOf = orig
		} else {
			batch[d.ContentHash] = d.Path
		}
	}

	added, err := c.index.Add(ctx, docs)
	if err != nil {
		// Everything after the last stored document is recorded as failed.
		indexed := 0
		for i := range docs {
			d := &docs[i]
			if !d.Indexable() {
				continue
			}
			if indexed < added.Documents {
				indexed++
				continue
			}
			d.Success = false
			d.Error = fmt.Sprintf("%v: indexing: %v", domain.ErrExtractionFailed, err)
			delete(batch, d.ContentHash)
		}
	}

	for hash, path := range batch {
		c.hashes[hash] = path
	}
	for _, d := range docs {
		switch {
		case !d.Success:
			stats.Failed++
		case d.DuplicateOf != "":
			stats.Succeeded++
			stats.Duplicates++
		default:
			stats.Succeeded++
		}
	}
	stats.ChunksAdded = added.Chunks

	c.documents = append(c.documents, docs...)
	c.touch()

	if err != nil {
		return stats, fmt.Errorf("index documents: %w", err)
	}
	logger.Debug("Ingested %d documents (%d failed, %d duplicates), %d chunks",
		stats.Documents, stats.Failed, stats.Duplicates, stats.ChunksAdded)
	return stats, nil
}

// supersede drops the log entries and chunks of path when path was
// indexed before with different content. Unchanged content is left for
// the duplicate check.
func (c *Corpus) supersede(path, hash string) {
	changed := false
	for _, d := range c.documents {
		if d.Path == path && d.Success && d.DuplicateOf == "" && d.ContentHash != hash {
			changed = true
			break
		}
	}
	if !changed {
		return
	}

	kept := c.documents[:0]
	for _, d := range c.documents {
		if d.Path != path {
			kept = append(kept, d)
			continue
		}
		if c.hashes[d.ContentHash] == path {
			delete(c.hashes, d.ContentHash)
		}
	}
	clear(c.documents[len(kept):])
	c.documents = kept

	removed := c.index.RemoveDocument(path)
	logger.Info("Replacing changed document %s (%d stale chunks removed)", path, removed)
}

// Search returns the k chunks most similar to query.
func (c *Corpus) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	return c.index.Search(ctx, query, k)
}

// SearchWithContext merges recent conversation turns into the query.
func (c *Corpus) SearchWithContext(ctx context.Context, query string, recent []string, k int) ([]domain.SearchResult, error) {
	return c.index.SearchWithContext(ctx, query, recent, k)
}

// Statistics derives the corpus summary. It never mutates the corpus.
func (c *Corpus) Statistics() domain.CorpusStats {
	stats := domain.CorpusStats{
		Name:      c.name,
		Path:      c.dir,
		Sources:   make(map[string]domain.SourceBreakdown),
		Index:     c.index.Statistics(),
		CreatedAt: c.descriptor.CreatedAt,
		UpdatedAt: c.descriptor.UpdatedAt,
	}

	for _, d := range c.documents {
		stats.TotalDocuments++
		src := stats.Sources[d.SourceTag]
		src.Documents++
		switch {
		case !d.Success:
			stats.FailedDocuments++
		case d.DuplicateOf != "":
			stats.SuccessfulDocuments++
			stats.DuplicateDocuments++
			src.Successful++
		default:
			stats.SuccessfulDocuments++
			stats.TotalWords += d.WordCount
			stats.TotalBytes += d.SizeBytes
			src.Successful++
			src.Words += d.WordCount
		}
		stats.Sources[d.SourceTag] = src
	}

	for _, e := range c.index.store.Entries() {
		src := stats.Sources[e.Chunk.SourceTag]
		src.Chunks++
		stats.Sources[e.Chunk.SourceTag] = src
	}

	if stats.TotalDocuments > 0 {
		stats.SuccessRate = float64(stats.SuccessfulDocuments) / float64(stats.TotalDocuments)
	}
	if indexed := stats.SuccessfulDocuments - stats.DuplicateDocuments; indexed > 0 {
		stats.AvgWordsPerDocument = float64(stats.TotalWords) / float64(indexed)
	}
	return stats
}

// Save writes the snapshot and then the descriptor.
func (c *Corpus) Save(ctx context.Context) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %w", domain.ErrPersistenceFailed, c.dir, err)
	}

	snap := c.index.Snapshot()
	snap.Documents = c.Documents()
	if snap.UpdatedAt.IsZero() {
		snap.UpdatedAt = c.descriptor.UpdatedAt
	}
	if err := c.snapshots.Save(ctx, c.SnapshotPath(), snap); err != nil {
		return err
	}

	c.refreshDescriptor()
	if err := writeDescriptor(c.DescriptorPath(), c.descriptor); err != nil {
		return err
	}
	logger.Info("Saved corpus %s: %d documents, %d chunks", c.name, len(c.documents), c.index.Len())
	return nil
}

// Clear empties the document log, the hash set and the index.
func (c *Corpus) Clear() {
	c.documents = nil
	c.hashes = make(map[string]string)
	c.index.Clear()
	c.touch()
}

// CopyInto appends every document and vector to dst. Both corpora must
// share an embedding model. An empty dst adopts the source chunker;
// otherwise the chunkers must agree.
func (c *Corpus) CopyInto(dst *Corpus) error {
	if dst.index.Model() != c.index.Model() || dst.index.Dimensions() != c.index.Dimensions() {
		return fmt.Errorf("%w: cannot copy %s into %s", domain.ErrModelMismatch, c.name, dst.name)
	}
	src, cur := c.index.Chunker(), dst.index.Chunker()
	switch {
	case dst.index.Len() == 0:
		dst.index.chunker = src
	case src.Strategy() != cur.Strategy() || src.Size() != cur.Size() || src.Overlap() != cur.Overlap():
		return fmt.Errorf("%w: %s and %s are chunked differently", domain.ErrInvalidChunking, c.name, dst.name)
	}

	dst.documents = append(dst.documents, c.documents...)
	for hash, path := range c.hashes {
		if _, ok := dst.hashes[hash]; !ok {
			dst.hashes[hash] = path
		}
	}
	dst.index.absorb(c.index.store.Entries())
	dst.touch()
	return nil
}

// restore loads a snapshot into an empty corpus.
func (c *Corpus) restore(snap *domain.Snapshot, checkModel bool) error {
	if err := c.index.restore(snap, checkModel); err != nil {
		return err
	}
	c.documents = append([]domain.Document(nil), snap.Documents...)
	c.hashes = make(map[string]string)
	for _, d := range c.documents {
		if d.Success && d.DuplicateOf == "" && d.ContentHash != "" {
			c.hashes[d.ContentHash] = d.Path
		}
	}
	return nil
}

// rename changes the name and directory used by the next Save.
func (c *Corpus) rename(name, dir string) {
	c.name = name
	c.dir = dir
	c.descriptor.Name = name
}

func (c *Corpus) touch() {
	c.descriptor.UpdatedAt = c.now()
}

func (c *Corpus) refreshDescriptor() {
	ch := c.index.Chunker()
	c.descriptor.Name = c.name
	c.descriptor.EmbeddingModel = c.index.Model()
	c.descriptor.Dimensions = c.index.Dimensions()
	c.descriptor.ChunkStrategy = ch.Strategy()
	c.descriptor.ChunkSize = ch.Size()
	c.descriptor.ChunkOverlap = ch.Overlap()
	c.descriptor.DocumentCount = len(c.documents)
	c.descriptor.ChunkCount = c.index.Len()
}

func writeDescriptor(path string, d domain.Descriptor) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal descriptor: %w", domain.ErrPersistenceFailed, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %w", domain.ErrPersistenceFailed, path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: replace %s: %w", domain.ErrPersistenceFailed, path, err)
	}
	return nil
}

func readDescriptor(path string) (domain.Descriptor, error) {
	var d domain.Descriptor
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return d, fmt.Errorf("%w: %s", domain.ErrCorpusNotFound, path)
		}
		return d, fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, err)
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("%w: parse %s: %w", domain.ErrPersistenceFailed, path, err)
	}
	return d, nil
}
