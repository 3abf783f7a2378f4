// Package latex provides a Normaliser for LaTeX sources. Markup is
// removed, sectioning commands become headings, and mathematics is kept
// behind EQUATION:, EQUATIONS: and MATH: markers so it stays searchable.
package latex

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles LaTeX documents.
type Normaliser struct{}

// New creates a new LaTeX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Name returns the normaliser name.
func (n *Normaliser) Name() string { return "latex" }

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string { return []string{".tex", ".latex"} }

// SupportedMIMETypes returns the MIME types this normaliser handles.
// LaTeX sources sniff as plain text.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/plain", "text/x-tex", "application/x-tex"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int { return 50 }

// Normalise converts LaTeX source to plain text.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawFile) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil file", domain.ErrExtractionFailed)
	}
	return &driven.NormaliseResult{Text: Clean(string(raw.Content))}, nil
}

// Pre-compiled regular expressions, applied in declaration order.
var (
	comments     = regexp.MustCompile(`(?m)(^|[^\\])%.*$`)
	documentBody = regexp.MustCompile(`(?s)\\begin\{document\}(.*?)(?:\\end\{document\}|$)`)
	titleCmd     = regexp.MustCompile(`\\title\{([^}]*)\}`)
	abstractEnv  = regexp.MustCompile(`(?s)\\begin\{abstract\}(.*?)\\end\{abstract\}`)
	sectionCmd   = regexp.MustCompile(`\\(chapter|section|subsection|subsubsection|paragraph)\*?(?:\[[^\]]*\])?\{([^}]*)\}`)
	bibliography = regexp.MustCompile(`\\begin\{thebibliography\}(?:\{[^}]*\})?`)
	displayMath  = regexp.MustCompile(`(?s)\$\$(.+?)\$\$|\\\[(.+?)\\\]`)
	equationEnv  = regexp.MustCompile(`(?s)\\begin\{(?:equation|displaymath)\*?\}(.*?)\\end\{(?:equation|displaymath)\*?\}`)
	alignEnv     = regexp.MustCompile(`(?s)\\begin\{(?:align|eqnarray|gather|multline)\*?\}(.*?)\\end\{(?:align|eqnarray|gather|multline)\*?\}`)
	inlineMath   = regexp.MustCompile(`\$([^$]+)\$`)
	figureEnv    = regexp.MustCompile(`(?s)\\begin\{figure\*?\}(.*?)\\end\{figure\*?\}`)
	captionCmd   = regexp.MustCompile(`\\caption(?:\[[^\]]*\])?\{([^}]*)\}`)
	tableEnv     = regexp.MustCompile(`(?s)\\begin\{table\*?\}.*?\\caption\{([^}]*)\}.*?\\end\{table\*?\}`)
	citeCmd      = regexp.MustCompile(`\\(?:cite|citep|citet|parencite)\*?(?:\[[^\]]*\])?\{([^}]*)\}`)
	argCmd       = regexp.MustCompile(`\\[a-zA-Z]+\*?(?:\[[^\]]*\])?\{([^{}]*)\}`)
	bareCmd      = regexp.MustCompile(`\\[a-zA-Z]+\*?`)
	braces       = regexp.MustCompile(`[{}]`)
	escapes      = regexp.MustCompile(`\\[^\w\s]`)
	spaces       = regexp.MustCompile(`[ \t\r\f]+`)
	newlines     = regexp.MustCompile(`\n{3,}`)
)

// escapedDollar stands in for \$ while mathematics is marked.
const escapedDollar = "\uE000"

var headingLevel = map[string]string{
	"chapter":       "#",
	"section":       "##",
	"subsection":    "###",
	"subsubsection": "####",
	"paragraph":     "#####",
}

// Clean strips LaTeX markup from src and returns readable text.
func Clean(src string) string {
	text := comments.ReplaceAllString(src, "$1")

	var title string
	if m := titleCmd.FindStringSubmatch(text); m != nil {
		title = strings.TrimSpace(m[1])
	}
	if m := documentBody.FindStringSubmatch(text); m != nil {
		text = m[1]
		if title != "" {
			text = "# " + title + "\n\n" + text
		}
	}

	text = abstractEnv.ReplaceAllString(text, "\n\nAbstract\n\n$1\n\n")
	text = sectionCmd.ReplaceAllStringFunc(text, func(s string) string {
		m := sectionCmd.FindStringSubmatch(s)
		return "\n\n" + headingLevel[m[1]] + " " + strings.TrimSpace(m[2]) + "\n\n"
	})
	text = bibliography.ReplaceAllString(text, "\n\nReferences\n\n")

	text = strings.ReplaceAll(text, `\$`, escapedDollar)
	text = mark(text, displayMath, "EQUATION:")
	text = mark(text, equationEnv, "EQUATION:")
	text = mark(text, alignEnv, "EQUATIONS:")
	text = inlineMath.ReplaceAllString(text, "MATH: $1")

	text = figureEnv.ReplaceAllStringFunc(text, func(s string) string {
		m := captionCmd.FindStringSubmatch(s)
		if m == nil {
			return "\n"
		}
		return "\nFigure: " + m[1] + "\n"
	})
	text = tableEnv.ReplaceAllString(text, "\nTable: $1\n")
	text = citeCmd.ReplaceAllString(text, "[$1]")

	// Innermost arguments first, so nested commands unwrap outward.
	for i := 0; i < 8; i++ {
		next := argCmd.ReplaceAllString(text, "$1")
		if next == text {
			break
		}
		text = next
	}
	text = bareCmd.ReplaceAllString(text, "")
	text = braces.ReplaceAllString(text, "")
	text = escapes.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, escapedDollar, "$")

	return tidy(text)
}

// mark replaces each match of re with label followed by the captured
// mathematics on a single line.
func mark(text string, re *regexp.Regexp, label string) string {
	return re.ReplaceAllStringFunc(text, func(s string) string {
		m := re.FindStringSubmatch(s)
		body := strings.Join(m[1:], " ")
		return " " + label + " " + strings.Join(strings.Fields(body), " ") + " "
	})
}

// tidy collapses horizontal whitespace, trims lines and keeps at most one
// blank line between paragraphs.
func tidy(text string) string {
	text = spaces.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = newlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
