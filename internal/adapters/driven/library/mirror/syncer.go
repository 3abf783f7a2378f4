// Package mirror implements driven.LibrarySyncer over a reference
// library's attachment storage on disk.
//
// The storage directory holds one subdirectory per collection. Syncing
// copies every supported file into MirrorDir/<collection>, skipping files
// whose size and modification time already match. Copies are throttled to
// FilesPerSecond.
package mirror

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/logger"
)

// Ensure Syncer implements the interface.
var _ driven.LibrarySyncer = (*Syncer)(nil)

// Syncer mirrors library collections into a local folder.
type Syncer struct {
	storageDir string
	mirrorDir  string
	scanner    driven.FileScanner
	limiter    *rate.Limiter
}

// New creates a syncer from the library settings. The returned syncer
// reports ErrSourceUnavailable on use when no storage directory is set.
func New(settings domain.LibrarySettings, scanner driven.FileScanner) *Syncer {
	limit := rate.Inf
	if settings.FilesPerSecond > 0 {
		limit = rate.Limit(settings.FilesPerSecond)
	}
	return &Syncer{
		storageDir: settings.StorageDir,
		mirrorDir:  settings.MirrorDir,
		scanner:    scanner,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// MirrorDir returns the folder that receives synced files.
func (s *Syncer) MirrorDir() string {
	return s.mirrorDir
}

// Preview counts the supported files in each collection.
func (s *Syncer) Preview(ctx context.Context, collections []string) (map[string]int, error) {
	names, err := s.resolve(collections)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(names))
	for _, name := range names {
		files, err := s.scanner.Scan(ctx, filepath.Join(s.storageDir, name))
		if err != nil {
			return nil, fmt.Errorf("preview %s: %w", name, err)
		}
		counts[name] = len(files)
	}
	return counts, nil
}

// Sync copies the collections into the mirror. Individual copy failures
// are counted and logged; only an unusable storage directory, a
// collection that cannot be scanned or cancellation fail the sync.
func (s *Syncer) Sync(ctx context.Context, collections []string) (domain.SyncReport, error) {
	var report domain.SyncReport

	names, err := s.resolve(collections)
	if err != nil {
		return report, err
	}
	if s.mirrorDir == "" {
		return report, fmt.Errorf("%w: no mirror directory configured", domain.ErrSourceUnavailable)
	}

	for _, name := range names {
		src, err := filepath.Abs(filepath.Join(s.storageDir, name))
		if err != nil {
			return report, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
		}
		files, err := s.scanner.Scan(ctx, src)
		if err != nil {
			return report, fmt.Errorf("sync %s: %w", name, err)
		}
		if err := os.MkdirAll(filepath.Join(s.mirrorDir, name), 0o755); err != nil {
			return report, fmt.Errorf("%w: create mirror for %s: %v", domain.ErrSourceUnavailable, name, err)
		}

		for _, path := range files {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			rel, err := filepath.Rel(src, path)
			if err != nil {
				report.Failed++
				continue
			}
			dst := filepath.Join(s.mirrorDir, name, rel)

			copied, err := s.syncFile(ctx, path, dst)
			switch {
			case err != nil && ctx.Err() != nil:
				return report, ctx.Err()
			case err != nil:
				logger.Warn("Failed to mirror %s: %v", path, err)
				report.Failed++
			case copied:
				report.Copied++
			default:
				report.Skipped++
			}
		}
		report.Collections = append(report.Collections, name)
	}

	logger.Debug("Mirrored %d collections into %s", len(report.Collections), s.mirrorDir)
	return report, nil
}

// resolve returns the requested collections, or every collection when none
// are named.
func (s *Syncer) resolve(collections []string) ([]string, error) {
	if s.storageDir == "" {
		return nil, fmt.Errorf("%w: no library storage directory configured", domain.ErrSourceUnavailable)
	}

	entries, err := os.ReadDir(s.storageDir)
	if err != nil {
		return nil, fmt.Errorf("%w: read library storage: %v", domain.ErrSourceUnavailable, err)
	}
	available := make(map[string]bool, len(entries))
	var all []string
	for _, e := range entries {
		if e.IsDir() && e.Name()[0] != '.' {
			available[e.Name()] = true
			all = append(all, e.Name())
		}
	}

	if len(collections) == 0 {
		sort.Strings(all)
		return all, nil
	}

	names := make([]string, 0, len(collections))
	for _, c := range collections {
		if !available[c] {
			return nil, fmt.Errorf("%w: unknown collection %q", domain.ErrSourceUnavailable, c)
		}
		names = append(names, c)
	}
	return names, nil
}

// syncFile copies src to dst unless dst already has the same size and
// modification time.
func (s *Syncer) syncFile(ctx context.Context, src, dst string) (bool, error) {
	info, err := os.Stat(src)
	if err != nil {
		return false, err
	}
	if existing, err := os.Stat(dst); err == nil &&
		existing.Size() == info.Size() && existing.ModTime().Equal(info.ModTime()) {
		return false, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return false, err
	}
	if err := copyFile(src, dst, info); err != nil {
		return false, err
	}
	return true, nil
}

// copyFile writes src to a temporary file beside dst, renames it into
// place and carries over the modification time.
func copyFile(src, dst string, info os.FileInfo) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
