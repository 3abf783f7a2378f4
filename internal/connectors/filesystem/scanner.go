package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/logger"
)

// Ensure Scanner implements the interface.
var _ driven.FileScanner = (*Scanner)(nil)

// Scanner walks directories and selects files by extension. Exclude
// patterns use glob syntax with ** crossing directories and are matched
// against the slash-separated path relative to the scanned root.
type Scanner struct {
	extensions map[string]bool
	exclude    []glob.Glob
}

// NewScanner creates a scanner for the given extensions.
// Returns domain.ErrConfigInvalid if a pattern does not compile.
func NewScanner(extensions, exclude []string) (*Scanner, error) {
	s := &Scanner{extensions: make(map[string]bool, len(extensions))}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.extensions[ext] = true
	}

	for _, pattern := range exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("%w: exclude pattern %q: %v", domain.ErrConfigInvalid, pattern, err)
		}
		s.exclude = append(s.exclude, g)
	}
	return s, nil
}

// Extensions returns the supported extensions, sorted.
func (s *Scanner) Extensions() []string {
	exts := make([]string, 0, len(s.extensions))
	for ext := range s.extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supported reports whether path has a supported extension and is not a
// hidden file.
func (s *Scanner) Supported(path string) bool {
	return s.extensions[strings.ToLower(filepath.Ext(path))] && !strings.HasPrefix(filepath.Base(path), ".")
}

// Scan returns every supported file under root in lexical order.
// Unreadable subdirectories are skipped with a warning.
func (s *Scanner) Scan(ctx context.Context, root string) ([]string, error) {
	if err := Validate(ctx, root); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			logger.Warn("skipping %s: %v", path, walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if path != root && s.excluded(filepath.ToSlash(rel)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type().IsRegular() && s.extensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: scan %s: %v", domain.ErrSourceUnavailable, root, err)
	}

	sort.Strings(files)
	return files, nil
}

func (s *Scanner) excluded(rel string) bool {
	for _, g := range s.exclude {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// Validate checks that path is an existing, readable directory.
// A cancelled context is returned unwrapped.
func Validate(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s does not exist", domain.ErrSourceUnavailable, path)
		}
		return fmt.Errorf("%w: cannot access %s: %v", domain.ErrSourceUnavailable, path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrSourceUnavailable, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s is not readable: %v", domain.ErrSourceUnavailable, path, err)
	}
	defer f.Close()
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s is not readable: %v", domain.ErrSourceUnavailable, path, err)
	}
	return nil
}

// isHidden reports whether any path component starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part != "" && part != "." && part != ".." && strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
