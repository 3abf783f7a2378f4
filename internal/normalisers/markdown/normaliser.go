// Package markdown provides the Normaliser for Markdown notes. Formatting
// is removed but heading markers are kept so chunk boundaries can follow
// the document outline.
package markdown

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Name returns the normaliser name.
func (n *Normaliser) Name() string { return "markdown" }

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown", "text/plain"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic format normaliser, higher than plaintext
}

// Normalise converts a markdown document to plain text.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawFile) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil file", domain.ErrExtractionFailed)
	}

	text, err := plaintext.Decode(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, raw.Path, err)
	}
	return &driven.NormaliseResult{Text: stripMarkdown(text)}, nil
}

// Pre-compiled regular expressions for markdown stripping.
var (
	frontMatter   = regexp.MustCompile(`(?s)\A---\n.*?\n---\n`)
	codeBlock     = regexp.MustCompile("(?s)```[^`]*```")
	inlineCode    = regexp.MustCompile("`([^`]+)`")
	images        = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	emphasis      = regexp.MustCompile(`(\*\*|__|\*)([^*_\n]+)(\*\*|__|\*)`)
	blockquote    = regexp.MustCompile(`(?m)^>\s*`)
	hr            = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	listMarkers   = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedList  = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown removes common markdown formatting. Headings keep their
// leading # markers.
func stripMarkdown(content string) string {
	content = frontMatter.ReplaceAllString(content, "")

	// Remove code blocks (```...```)
	content = codeBlock.ReplaceAllString(content, "")

	// Keep inline code text
	content = inlineCode.ReplaceAllString(content, "$1")

	// Images become their alt text
	content = images.ReplaceAllString(content, "$1")

	// Convert links [text](url) to just text
	content = links.ReplaceAllString(content, "$1")

	// Remove bold/italic markers
	content = emphasis.ReplaceAllString(content, "$2")

	content = blockquote.ReplaceAllString(content, "")
	content = hr.ReplaceAllString(content, "")

	// Remove list markers (- * + and numbered)
	content = listMarkers.ReplaceAllString(content, "")
	content = numberedList.ReplaceAllString(content, "")

	content = multiNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
