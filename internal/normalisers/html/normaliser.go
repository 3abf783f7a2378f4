package html

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Name returns the normaliser name.
func (n *Normaliser) Name() string { return "html" }

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
// Fragments without a doctype sniff as plain text.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml", "text/xml", "text/plain"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic format normaliser, higher than plaintext
}

// Normalise converts an HTML document to plain text.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawFile) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil file", domain.ErrExtractionFailed)
	}
	return &driven.NormaliseResult{Text: stripHTML(string(raw.Content))}, nil
}

// skipped elements contribute no text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Head:     true,
	atom.Svg:      true,
	atom.Template: true,
}

// blocks start a new line.
var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Hr: true,
	atom.Li: true, atom.Tr: true, atom.Blockquote: true, atom.Pre: true,
	atom.Table: true, atom.Section: true, atom.Article: true, atom.Ul: true,
	atom.Ol: true, atom.Header: true, atom.Footer: true, atom.Main: true,
	atom.Figure: true, atom.Figcaption: true, atom.Dt: true, atom.Dd: true,
}

var headings = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3, atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

var multiSpaces = regexp.MustCompile(`[ \t\r\f\x{00a0}]+`)

// stripHTML removes markup and returns one line per block of text.
// Entities are decoded by the tokenizer.
func stripHTML(content string) string {
	z := html.NewTokenizer(strings.NewReader(content))
	var sb strings.Builder
	depth := 0 // nesting inside skipped elements

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return tidy(sb.String())

		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := atom.Lookup(name)

			if skipped[tag] {
				switch {
				case tt == html.StartTagToken:
					depth++
				case tt == html.EndTagToken && depth > 0:
					depth--
				}
				continue
			}
			if depth > 0 {
				continue
			}

			if level, ok := headings[tag]; ok {
				if tt == html.StartTagToken {
					sb.WriteString("\n" + strings.Repeat("#", level) + " ")
				} else {
					sb.WriteString("\n")
				}
				continue
			}
			switch {
			case blocks[tag]:
				sb.WriteString("\n")
			case tag == atom.Td || tag == atom.Th:
				sb.WriteString(" ")
			}

		case html.TextToken:
			if depth == 0 {
				sb.Write(z.Text())
			}
		}
	}
}

// tidy collapses spaces, trims each line and drops empty lines.
func tidy(text string) string {
	lines := strings.Split(multiSpaces.ReplaceAllString(text, " "), "\n")
	result := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}
