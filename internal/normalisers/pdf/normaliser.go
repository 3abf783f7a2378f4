// Package pdf provides a Normaliser for PDF documents. Text is read with
// a pure Go PDF reader first. When that yields nothing and the fallback is
// enabled, the poppler pdftotext tool is tried.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

const pdftotext = "pdftotext"

// Extraction methods recorded on documents.
const (
	MethodReader    = "pdf-reader"
	MethodPdftotext = "pdftotext"
)

// CommandRunner executes external commands.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Normaliser handles PDF documents.
type Normaliser struct {
	runner    CommandRunner
	fallback  bool
	checkTool func() error
}

// New creates a PDF normaliser. fallback enables pdftotext when the
// built-in reader extracts no text.
func New(fallback bool) *Normaliser {
	return &Normaliser{
		runner:    execRunner{},
		fallback:  fallback,
		checkTool: CheckAvailable,
	}
}

// NewWithRunner creates a PDF normaliser with the fallback enabled and
// commands sent to runner.
func NewWithRunner(runner CommandRunner) *Normaliser {
	return &Normaliser{
		runner:    runner,
		fallback:  true,
		checkTool: func() error { return nil },
	}
}

// CheckAvailable reports whether pdftotext is on PATH.
func CheckAvailable() error {
	if _, err := exec.LookPath(pdftotext); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions describes how to install pdftotext.
func InstallInstructions() string {
	return `pdftotext is provided by poppler:
  macOS:         brew install poppler
  Debian/Ubuntu: apt install poppler-utils
  Fedora:        dnf install poppler-utils`
}

// Name returns the normaliser name.
func (n *Normaliser) Name() string { return "pdf" }

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string { return []string{".pdf"} }

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string { return []string{"application/pdf"} }

// Priority returns the selection priority.
func (n *Normaliser) Priority() int { return 50 }

// Normalise extracts the text of every page.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawFile) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil file", domain.ErrExtractionFailed)
	}

	text, readErr := readText(raw.Content)
	if readErr == nil && strings.TrimSpace(text) != "" {
		return &driven.NormaliseResult{Text: text, Method: MethodReader}, nil
	}
	if readErr == nil {
		readErr = errors.New("no text layer")
	}

	if !n.fallback {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, raw.Path, readErr)
	}

	logger.Debug("pdf reader failed for %s (%v), trying pdftotext", raw.Path, readErr)
	text, err := n.runPdftotext(ctx, raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v; %w", domain.ErrExtractionFailed, raw.Path, readErr, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s: no extractable text", domain.ErrExtractionFailed, raw.Path)
	}
	return &driven.NormaliseResult{Text: text, Method: MethodPdftotext}, nil
}

// readText extracts plain text page by page. The reader panics on some
// malformed files, so panics are returned as errors.
func readText(content []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(pageText)
	}
	return sb.String(), nil
}

func (n *Normaliser) runPdftotext(ctx context.Context, content []byte) (string, error) {
	if err := n.checkTool(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp("", "folio-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	out, err := n.runner.Run(ctx, pdftotext, "-layout", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", ErrPDFToolNotFound
		}
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}
	return string(out), nil
}
