package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/djherbis/times"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/logger"
)

// Extractor turns files into document records. It never fails a batch
// because of one file: every failure is recorded on the document.
type Extractor struct {
	registry driven.NormaliserRegistry
	scanner  driven.FileScanner
	now      func() time.Time
}

// NewExtractor creates an extractor over a populated normaliser registry
// and a scanner for directory walks.
func NewExtractor(registry driven.NormaliserRegistry, scanner driven.FileScanner) *Extractor {
	return &Extractor{
		registry: registry,
		scanner:  scanner,
		now:      time.Now,
	}
}

// Process extracts one file. The returned document has Success=false and
// a populated Error when anything goes wrong.
func (e *Extractor) Process(ctx context.Context, path, sourceTag string) domain.Document {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	doc := domain.Document{
		ID:          uuid.New().String(),
		Path:        path,
		Name:        filepath.Base(path),
		SourceTag:   sourceTag,
		ExtractedAt: e.now(),
	}

	fail := func(err error) domain.Document {
		doc.Success = false
		doc.Error = err.Error()
		logger.Debug("extract %s: %v", path, err)
		return doc
	}

	info, err := os.Stat(path)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err))
	}
	if info.IsDir() {
		return fail(fmt.Errorf("%w: %s is a directory", domain.ErrExtractionFailed, path))
	}
	doc.SizeBytes = info.Size()
	doc.ModifiedAt = info.ModTime()
	doc.CreatedAt = createdAt(path)

	content, err := os.ReadFile(path)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err))
	}
	sum := sha256.Sum256(content)
	doc.ContentHash = hex.EncodeToString(sum[:])

	if err := ctx.Err(); err != nil {
		return fail(fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err))
	}

	raw := &domain.RawFile{
		Path:     path,
		Ext:      strings.ToLower(filepath.Ext(path)),
		MIMEType: mimetype.Detect(content).String(),
		Content:  content,
	}

	n, result, err := e.registry.Normalise(ctx, raw)
	if n != nil {
		doc.Extractor = n.Name()
	}
	if err != nil {
		return fail(fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err))
	}
	if result.Method != "" {
		doc.Extractor = result.Method
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		return fail(fmt.Errorf("%w: no text extracted", domain.ErrExtractionFailed))
	}

	doc.Text = text
	doc.WordCount = len(strings.Fields(text))
	doc.Success = true
	return doc
}

// ScanDir lists every supported file under root in lexical order.
func (e *Extractor) ScanDir(ctx context.Context, root string) ([]string, error) {
	return e.scanner.Scan(ctx, root)
}

// ProcessDir scans root and processes each file with the given tag.
// Only an unusable root or a cancelled context returns an error; in the
// latter case the documents processed so far are returned too.
func (e *Extractor) ProcessDir(ctx context.Context, root, sourceTag string) ([]domain.Document, error) {
	files, err := e.ScanDir(ctx, root)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return docs, err
		}
		docs = append(docs, e.Process(ctx, file, sourceTag))
	}
	return docs, nil
}

// Supported reports whether path would be picked up by a scan.
func (e *Extractor) Supported(path string) bool {
	return e.scanner.Supported(path)
}

// createdAt returns the birth time of path, falling back to the status
// change time.
func createdAt(path string) time.Time {
	ts, err := times.Stat(path)
	switch {
	case err != nil:
		return time.Time{}
	case ts.HasBirthTime():
		return ts.BirthTime()
	case ts.HasChangeTime():
		return ts.ChangeTime()
	}
	return time.Time{}
}
