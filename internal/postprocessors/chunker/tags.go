package chunker

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/folio/internal/core/domain"
)

var citationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[\d+(?:\s*[,\x{2013}-]\s*\d+)*\]`),
	regexp.MustCompile(`\[[\w\s.,&]+\d{4}[a-z]?\]`),
	regexp.MustCompile(`\([\w\s.,&]+\d{4}[a-z]?\)`),
	regexp.MustCompile(`\b\w+\s+et\s+al\.`),
}

var latexMath = []string{"$", `\begin{equation`, `\begin{align`, `\[`, "EQUATION:", "EQUATIONS:", "MATH:"}

var mathSymbols = []string{"=", "≡", "≈", "∝", "∫", "∑", "∂", "∇", "α", "β", "γ", "δ", "θ", "λ", "μ", "π", "σ", "φ", "ψ", "ω", "±", "≤", "≥"}

var sectionKeywords = []struct {
	section  domain.SectionKind
	keywords []string
}{
	{domain.SectionIntroduction, []string{"introduction", "background"}},
	{domain.SectionMethods, []string{"method", "methodology", "approach"}},
	{domain.SectionResults, []string{"results", "findings", "experiment"}},
	{domain.SectionDiscussion, []string{"discussion", "analysis"}},
	{domain.SectionConclusion, []string{"conclusion", "summary"}},
	{domain.SectionReferences, []string{"references", "bibliography"}},
}

// detectSection guesses a section for a chunk that follows no heading,
// first from keywords near its start, then from its position.
func detectSection(text string, index, total int) domain.SectionKind {
	lower := strings.ToLower(text)
	if index == 0 && strings.Contains(head(lower, 200), "abstract") {
		return domain.SectionAbstract
	}

	lead := head(lower, 100)
	for _, rule := range sectionKeywords {
		for _, kw := range rule.keywords {
			if strings.Contains(lead, kw) {
				return rule.section
			}
		}
	}

	position := float64(index) / float64(max(total, 1))
	switch {
	case position < 0.2:
		return domain.SectionIntroduction
	case position > 0.8:
		return domain.SectionConclusion
	default:
		return domain.SectionBody
	}
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// detectEquations reports LaTeX math markers or at least three distinct
// mathematical symbols.
func detectEquations(text string) bool {
	for _, marker := range latexMath {
		if strings.Contains(text, marker) {
			return true
		}
	}
	found := 0
	for _, sym := range mathSymbols {
		if strings.Contains(text, sym) {
			found++
			if found >= 3 {
				return true
			}
		}
	}
	return false
}

func detectCitations(text string) bool {
	for _, re := range citationPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// confidence scores how cleanly a chunk is bounded, in [0, 1].
func confidence(text string, words, size int, split bool) float64 {
	c := 1.0
	switch {
	case words < size/10:
		c *= 0.5
	case words > size+size/2:
		c *= 0.8
	}
	if split {
		c *= 0.6
	}

	t := strings.TrimSpace(text)
	if strings.HasSuffix(t, ".") || strings.HasSuffix(t, "!") || strings.HasSuffix(t, "?") {
		c *= 1.1
	}
	if r, _ := utf8.DecodeRuneInString(t); unicode.IsUpper(r) {
		c *= 1.05
	}
	if strings.Count(t, "$")%2 == 1 {
		c *= 0.7
	}
	return min(c, 1.0)
}
