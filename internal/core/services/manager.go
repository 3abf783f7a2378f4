package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/core/ports/driving"
	"github.com/custodia-labs/folio/internal/logger"
)

// Ensure Manager implements the interface.
var _ driving.CorpusManager = (*Manager)(nil)

// MaxNameLength is the longest accepted corpus name.
const MaxNameLength = 100

const invalidNameChars = `/\:*?"<>|`

var reservedNames = map[string]bool{
	"con": true, "prn": true, "aux": true, "nul": true,
	"com1": true, "com2": true, "lpt1": true, "lpt2": true,
}

// ValidateName checks that name can be used as a corpus directory.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return fmt.Errorf("%w: name is empty", domain.ErrInvalidName)
	case trimmed != name:
		return fmt.Errorf("%w: %q has leading or trailing whitespace", domain.ErrInvalidName, name)
	case len(name) > MaxNameLength:
		return fmt.Errorf("%w: longer than %d characters", domain.ErrInvalidName, MaxNameLength)
	case strings.ContainsAny(name, invalidNameChars):
		return fmt.Errorf("%w: %q contains one of %s", domain.ErrInvalidName, name, invalidNameChars)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", domain.ErrInvalidName, name)
	case reservedNames[strings.ToLower(name)]:
		return fmt.Errorf("%w: %q is a reserved device name", domain.ErrInvalidName, name)
	}
	return nil
}

// ManagerDeps holds the collaborators shared by every corpus.
type ManagerDeps struct {
	Extractor *Extractor
	Chunker   driven.Chunker
	Embedder  driven.EmbeddingService
	Snapshots driven.SnapshotStore

	// NewStore returns an empty vector store for each opened corpus.
	NewStore func() driven.VectorStore

	// NewChunker rebuilds the chunker recorded in a descriptor when it
	// differs from Chunker. Nil rejects such corpora.
	NewChunker func(strategy domain.ChunkStrategy, size, overlap int) (driven.Chunker, error)

	// Locks is the single-writer guard. Nil creates a private registry.
	Locks *LockRegistry
}

// Validate checks that all required dependencies are set.
func (d ManagerDeps) Validate() error {
	var missing []string
	if d.Extractor == nil {
		missing = append(missing, "Extractor")
	}
	if d.Chunker == nil {
		missing = append(missing, "Chunker")
	}
	if d.Embedder == nil {
		missing = append(missing, "Embedder")
	}
	if d.Snapshots == nil {
		missing = append(missing, "Snapshots")
	}
	if d.NewStore == nil {
		missing = append(missing, "NewStore")
	}
	if len(missing) > 0 {
		return fmt.Errorf("manager: missing dependencies: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Manager owns the corpora below the configured base directory.
// Exported mutating operations take the corpus lock and fail fast with
// ErrCorpusLocked when another writer holds it.
type Manager struct {
	cfg  domain.Config
	deps ManagerDeps
}

// NewManager creates a manager.
func NewManager(cfg domain.Config, deps ManagerDeps) (*Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("%w: base directory is empty", domain.ErrConfigInvalid)
	}
	if deps.Locks == nil {
		deps.Locks = NewLockRegistry()
	}
	return &Manager{cfg: cfg, deps: deps}, nil
}

// Config returns the configuration the manager was built with.
func (m *Manager) Config() domain.Config {
	return m.cfg
}

// Locks returns the lock registry shared with the orchestrator.
func (m *Manager) Locks() *LockRegistry {
	return m.deps.Locks
}

// Dir returns the directory of the named corpus.
func (m *Manager) Dir(name string) string {
	return filepath.Join(m.cfg.BaseDir, name)
}

func (m *Manager) descriptorPath(name string) string {
	return filepath.Join(m.Dir(name), name+DescriptorSuffix)
}

func (m *Manager) snapshotPath(name string) string {
	return filepath.Join(m.Dir(name), name+m.deps.Snapshots.Extension())
}

// Exists reports whether a valid corpus with this name exists.
func (m *Manager) Exists(name string) bool {
	_, err := os.Stat(m.descriptorPath(name))
	return err == nil
}

// List returns every directory under the base that holds a descriptor,
// sorted by name.
func (m *Manager) List(_ context.Context) ([]domain.CorpusInfo, error) {
	entries, err := os.ReadDir(m.cfg.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.CorpusInfo{}, nil
		}
		return nil, fmt.Errorf("list corpora: %w", err)
	}

	infos := make([]domain.CorpusInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		desc, err := readDescriptor(m.descriptorPath(name))
		if err != nil {
			logger.Debug("Ignoring %s: %v", name, err)
			continue
		}
		infos = append(infos, domain.CorpusInfo{
			Descriptor: desc,
			Path:       m.Dir(name),
			SizeBytes:  dirSize(m.Dir(name)),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Describe reads the descriptor without loading the snapshot.
func (m *Manager) Describe(_ context.Context, name string) (domain.Descriptor, error) {
	if err := ValidateName(name); err != nil {
		return domain.Descriptor{}, err
	}
	desc, err := readDescriptor(m.descriptorPath(name))
	if err != nil {
		if errors.Is(err, domain.ErrCorpusNotFound) {
			return desc, fmt.Errorf("%w: %s", domain.ErrCorpusNotFound, name)
		}
		return desc, err
	}
	return desc, nil
}

// Info loads a corpus and returns its statistics.
func (m *Manager) Info(ctx context.Context, name string) (domain.CorpusStats, error) {
	c, err := m.Open(ctx, name)
	if err != nil {
		return domain.CorpusStats{}, err
	}
	return c.Statistics(), nil
}

// New creates an in-memory corpus that is not persisted until saved.
func (m *Manager) New(name string) (*Corpus, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return m.newCorpus(name), nil
}

func (m *Manager) newCorpus(name string) *Corpus {
	return m.newCorpusWith(name, m.deps.Chunker)
}

func (m *Manager) newCorpusWith(name string, ch driven.Chunker) *Corpus {
	index := NewVectorIndex(ch, m.deps.Embedder, m.deps.NewStore(), m.cfg.Search.ContextBudget)
	return NewCorpus(name, m.Dir(name), m.deps.Extractor, index, m.deps.Snapshots)
}

// chunkerFor returns the chunker that produced a stored corpus, so that
// later appends chunk the same way. Descriptors without chunking fields
// use the configured chunker.
func (m *Manager) chunkerFor(desc domain.Descriptor) (driven.Chunker, error) {
	ch := m.deps.Chunker
	if desc.ChunkSize == 0 || sameChunking(ch, desc) {
		return ch, nil
	}
	if m.deps.NewChunker == nil {
		return nil, fmt.Errorf("%w: %s was chunked %s %d/%d, configured %s %d/%d",
			domain.ErrInvalidChunking, desc.Name, desc.ChunkStrategy, desc.ChunkSize, desc.ChunkOverlap,
			ch.Strategy(), ch.Size(), ch.Overlap())
	}
	stored, err := m.deps.NewChunker(desc.ChunkStrategy, desc.ChunkSize, desc.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", desc.Name, err)
	}
	logger.Debug("Corpus %s keeps its %s %d/%d chunking", desc.Name, desc.ChunkStrategy, desc.ChunkSize, desc.ChunkOverlap)
	return stored, nil
}

func sameChunking(ch driven.Chunker, desc domain.Descriptor) bool {
	strategy := desc.ChunkStrategy
	if strategy == "" {
		strategy = domain.ChunkStrategyStructureAware
	}
	return ch.Strategy() == strategy && ch.Size() == desc.ChunkSize && ch.Overlap() == desc.ChunkOverlap
}

// Create creates and persists an empty corpus.
func (m *Manager) Create(ctx context.Context, name string) (*Corpus, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	unlock, err := m.deps.Locks.TryLock(name)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if m.Exists(name) {
		return nil, fmt.Errorf("%w: %s", domain.ErrCorpusExists, name)
	}

	c := m.newCorpus(name)
	if err := c.Save(ctx); err != nil {
		return nil, err
	}
	logger.Info("Created corpus %s", name)
	return c, nil
}

// CreateEmpty creates an empty corpus and returns its descriptor.
func (m *Manager) CreateEmpty(ctx context.Context, name string) (domain.Descriptor, error) {
	c, err := m.Create(ctx, name)
	if err != nil {
		return domain.Descriptor{}, err
	}
	return c.Descriptor(), nil
}

// Open loads a corpus. A snapshot embedded with another model returns
// ErrModelMismatch; Migrate with Reembed recovers it.
func (m *Manager) Open(ctx context.Context, name string) (*Corpus, error) {
	desc, err := m.Describe(ctx, name)
	if err != nil {
		return nil, err
	}

	snap, err := m.deps.Snapshots.Load(ctx, m.snapshotPath(name))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	ch, err := m.chunkerFor(desc)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	c := m.newCorpusWith(name, ch)
	if err := c.restore(snap, true); err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	c.descriptor.CreatedAt = desc.CreatedAt
	c.descriptor.UpdatedAt = desc.UpdatedAt
	return c, nil
}

// AddFile extracts one file into a corpus and saves it. A failed
// extraction is still recorded in the document log.
func (m *Manager) AddFile(ctx context.Context, name, path, tag string) (domain.Document, error) {
	if err := ValidateName(name); err != nil {
		return domain.Document{}, err
	}
	unlock, err := m.deps.Locks.TryLock(name)
	if err != nil {
		return domain.Document{}, err
	}
	defer unlock()

	c, err := m.Open(ctx, name)
	if err != nil {
		return domain.Document{}, err
	}

	doc, err := c.AddOne(ctx, path, tag)
	if err != nil {
		return doc, err
	}
	if err := c.Save(ctx); err != nil {
		return doc, err
	}
	return doc, nil
}

// Delete removes a corpus directory.
func (m *Manager) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	unlock, err := m.deps.Locks.TryLock(name)
	if err != nil {
		return err
	}
	defer unlock()

	if !m.Exists(name) {
		return fmt.Errorf("%w: %s", domain.ErrCorpusNotFound, name)
	}
	if err := os.RemoveAll(m.Dir(name)); err != nil {
		return fmt.Errorf("%w: delete %s: %w", domain.ErrPersistenceFailed, name, err)
	}
	logger.Info("Deleted corpus %s", name)
	return nil
}

// Rename moves a corpus directory and its files to a new name.
func (m *Manager) Rename(_ context.Context, oldName, newName string) error {
	if err := ValidateName(oldName); err != nil {
		return err
	}
	if err := ValidateName(newName); err != nil {
		return err
	}
	unlock, err := m.deps.Locks.TryLock(oldName, newName)
	if err != nil {
		return err
	}
	defer unlock()

	if !m.Exists(oldName) {
		return fmt.Errorf("%w: %s", domain.ErrCorpusNotFound, oldName)
	}
	if _, err := os.Stat(m.Dir(newName)); err == nil {
		return fmt.Errorf("%w: %s", domain.ErrCorpusExists, newName)
	}

	desc, err := readDescriptor(m.descriptorPath(oldName))
	if err != nil {
		return err
	}

	if err := os.Rename(m.Dir(oldName), m.Dir(newName)); err != nil {
		return fmt.Errorf("%w: rename %s: %w", domain.ErrPersistenceFailed, oldName, err)
	}

	dir := m.Dir(newName)
	ext := m.deps.Snapshots.Extension()
	moves := [][2]string{
		{filepath.Join(dir, oldName+ext), filepath.Join(dir, newName+ext)},
		{filepath.Join(dir, oldName+DescriptorSuffix), filepath.Join(dir, newName+DescriptorSuffix)},
	}
	for _, mv := range moves {
		if err := os.Rename(mv[0], mv[1]); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: rename %s: %w", domain.ErrPersistenceFailed, filepath.Base(mv[0]), err)
		}
	}

	desc.Name = newName
	if err := writeDescriptor(m.descriptorPath(newName), desc); err != nil {
		return err
	}
	logger.Info("Renamed corpus %s to %s", oldName, newName)
	return nil
}

// Migrate imports a legacy flat snapshot into the named layout and
// re-embeds a corpus whose model differs from the configured one. With
// no options set, whichever steps are needed run.
func (m *Manager) Migrate(ctx context.Context, name string, opts domain.MigrateOptions) (domain.MigrateResult, error) {
	result := domain.MigrateResult{ToModel: m.deps.Embedder.ModelName()}
	if err := ValidateName(name); err != nil {
		return result, err
	}
	unlock, err := m.deps.Locks.TryLock(name)
	if err != nil {
		return result, err
	}
	defer unlock()

	auto := !opts.Legacy && !opts.Reembed
	legacy := filepath.Join(m.cfg.BaseDir, name+m.deps.Snapshots.Extension())
	_, legacyErr := os.Stat(legacy)

	if opts.Legacy || (auto && legacyErr == nil && !m.Exists(name)) {
		if err := m.importLegacy(ctx, name, legacy); err != nil {
			return result, err
		}
		result.Imported = true
	}

	if !m.Exists(name) {
		return result, fmt.Errorf("%w: %s", domain.ErrCorpusNotFound, name)
	}

	desc, err := readDescriptor(m.descriptorPath(name))
	if err != nil {
		return result, err
	}
	snap, err := m.deps.Snapshots.Load(ctx, m.snapshotPath(name))
	if err != nil {
		return result, err
	}
	result.FromModel = snap.Model

	current := snap.Model == m.deps.Embedder.ModelName() && snap.Dimensions == m.deps.Embedder.Dimensions()
	if current || !(opts.Reembed || auto) {
		return result, nil
	}

	ch, err := m.chunkerFor(desc)
	if err != nil {
		return result, err
	}
	c := m.newCorpusWith(name, ch)
	if err := c.restore(snap, false); err != nil {
		return result, err
	}
	n, err := c.index.Reembed(ctx)
	if err != nil {
		return result, err
	}
	c.descriptor.CreatedAt = desc.CreatedAt
	c.touch()
	if err := c.Save(ctx); err != nil {
		return result, err
	}

	result.Reembedded = n
	logger.Info("Re-embedded %d chunks of %s: %s -> %s", n, name, result.FromModel, result.ToModel)
	return result, nil
}

func (m *Manager) importLegacy(ctx context.Context, name, legacy string) error {
	if _, err := os.Stat(legacy); err != nil {
		return fmt.Errorf("%w: no legacy snapshot at %s", domain.ErrCorpusNotFound, legacy)
	}
	if m.Exists(name) {
		return fmt.Errorf("%w: %s", domain.ErrCorpusExists, name)
	}

	snap, err := m.deps.Snapshots.Load(ctx, legacy)
	if err != nil {
		return fmt.Errorf("read legacy snapshot: %w", err)
	}

	if err := os.MkdirAll(m.Dir(name), 0o755); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, err)
	}
	if err := os.Rename(legacy, m.snapshotPath(name)); err != nil {
		return fmt.Errorf("%w: move legacy snapshot: %w", domain.ErrPersistenceFailed, err)
	}

	desc := domain.Descriptor{
		Name:           name,
		EmbeddingModel: snap.Model,
		Dimensions:     snap.Dimensions,
		ChunkSize:      m.deps.Chunker.Size(),
		ChunkOverlap:   m.deps.Chunker.Overlap(),
		ChunkStrategy:  m.deps.Chunker.Strategy(),
		DocumentCount:  len(snap.Documents),
		ChunkCount:     len(snap.Chunks),
		CreatedAt:      snap.UpdatedAt,
		UpdatedAt:      snap.UpdatedAt,
	}
	if info, err := os.Stat(m.snapshotPath(name)); err == nil && desc.CreatedAt.IsZero() {
		desc.CreatedAt = info.ModTime()
		desc.UpdatedAt = info.ModTime()
	}
	if err := writeDescriptor(m.descriptorPath(name), desc); err != nil {
		return err
	}
	logger.Info("Imported legacy snapshot %s", legacy)
	return nil
}

func dirSize(dir string) int64 {
	var size int64
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}
