package chunker

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/folio/internal/core/domain"
)

type unitKind int

const (
	unitSentence unitKind = iota
	unitHeading
	unitEquation
)

// unit is an indivisible run of words: a sentence, a heading line or an
// equation block. start is its offset in the document word stream.
type unit struct {
	kind    unitKind
	words   []string
	start   int
	section domain.SectionKind
	split   bool
}

var (
	markdownHeading = regexp.MustCompile(`^#{1,6}\s+\S`)
	numberedHeading = regexp.MustCompile(`^(\d+(\.\d+)*\.?|[IVX]+\.)\s+[A-Z]`)
	namedHeading    = regexp.MustCompile(`(?i)^(abstract|introduction|background|related work|methods?|methodology|materials and methods|experiments?|experimental setup|results?|discussion|conclusions?|summary|references|bibliography|acknowledge?ments?|appendix)\s*:?$`)

	displayMath = regexp.MustCompile(`(?s)\$\$.+?\$\$|\\\[.+?\\\]|\\begin\{(?:equation|align|eqnarray|gather|multline|displaymath)\*?\}.*?\\end\{(?:equation|align|eqnarray|gather|multline|displaymath)\*?\}`)

	sentenceEnd = regexp.MustCompile(`[.!?]+["')\]]*\s+`)
)

// abbreviations never end a sentence. Matched case-sensitively so that
// words such as "no." and "ed." still close one.
var abbreviations = map[string]bool{
	"Dr.": true, "Prof.": true, "Mr.": true, "Mrs.": true, "Ms.": true,
	"al.": true, "i.e.": true, "e.g.": true, "vs.": true, "cf.": true,
	"etc.": true, "Fig.": true, "fig.": true, "Figs.": true, "figs.": true,
	"Eq.": true, "eq.": true, "Eqs.": true, "eqs.": true, "Ref.": true,
	"ref.": true, "Refs.": true, "refs.": true, "Sec.": true, "sec.": true,
	"Ch.": true, "Vol.": true, "No.": true, "pp.": true, "Eds.": true,
	"Ed.": true, "approx.": true, "resp.": true, "Thm.": true, "Tab.": true,
}

// segment breaks text into units in reading order.
func segment(text string) []unit {
	var units []unit
	offset := 0

	add := func(kind unitKind, s string) {
		words := strings.Fields(s)
		if len(words) == 0 {
			return
		}
		u := unit{kind: kind, words: words, start: offset}
		if kind == unitHeading {
			u.section = classifyHeading(s)
		}
		units = append(units, u)
		offset += len(words)
	}

	for _, b := range splitBlocks(text) {
		if b.heading {
			add(unitHeading, b.text)
			continue
		}
		for _, piece := range splitDisplayMath(b.text) {
			if piece.math {
				add(unitEquation, piece.text)
				continue
			}
			for _, sentence := range splitSentences(piece.text) {
				kind := unitSentence
				if strings.Contains(sentence, "EQUATION:") || strings.Contains(sentence, "EQUATIONS:") {
					kind = unitEquation
				}
				add(kind, sentence)
			}
		}
	}
	return units
}

type block struct {
	text    string
	heading bool
}

// splitBlocks separates heading lines from paragraphs. Paragraphs end at
// blank lines and headings.
func splitBlocks(text string) []block {
	var (
		blocks []block
		para   []string
	)
	flush := func() {
		if len(para) > 0 {
			blocks = append(blocks, block{text: strings.Join(para, "\n")})
			para = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flush()
		case isHeading(trimmed):
			flush()
			blocks = append(blocks, block{text: trimmed, heading: true})
		default:
			para = append(para, trimmed)
		}
	}
	flush()
	return blocks
}

func isHeading(line string) bool {
	if len(strings.Fields(line)) > 12 {
		return false
	}
	if markdownHeading.MatchString(line) || namedHeading.MatchString(line) {
		return true
	}
	return numberedHeading.MatchString(line) && !strings.ContainsAny(line[len(line)-1:], ".!?:;,")
}

type mathPiece struct {
	text string
	math bool
}

func splitDisplayMath(text string) []mathPiece {
	var pieces []mathPiece
	last := 0
	for _, loc := range displayMath.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			pieces = append(pieces, mathPiece{text: text[last:loc[0]]})
		}
		pieces = append(pieces, mathPiece{text: text[loc[0]:loc[1]], math: true})
		last = loc[1]
	}
	if last < len(text) {
		pieces = append(pieces, mathPiece{text: text[last:]})
	}
	return pieces
}

// splitSentences splits on terminal punctuation followed by whitespace,
// skipping abbreviations and single-letter initials.
func splitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		if isAbbreviation(text[last:loc[0]+1]) {
			continue
		}
		sentences = append(sentences, text[last:loc[1]])
		last = loc[1]
	}
	if last < len(text) {
		sentences = append(sentences, text[last:])
	}
	return sentences
}

// isAbbreviation reports whether the token ending prefix is a known
// abbreviation or an initial such as "J.".
func isAbbreviation(prefix string) bool {
	token := prefix[strings.LastIndexAny(prefix, " \t\n(")+1:]
	if abbreviations[token] {
		return true
	}
	return len(token) == 2 && token[1] == '.' && token[0] >= 'A' && token[0] <= 'Z'
}

// classifyHeading maps heading text to a section kind. Headings that
// name no known section open a body section.
func classifyHeading(heading string) domain.SectionKind {
	h := strings.ToLower(heading)
	for _, rule := range headingRules {
		for _, kw := range rule.keywords {
			if strings.Contains(h, kw) {
				return rule.section
			}
		}
	}
	return domain.SectionBody
}

var headingRules = []struct {
	section  domain.SectionKind
	keywords []string
}{
	{domain.SectionAbstract, []string{"abstract"}},
	{domain.SectionReferences, []string{"references", "bibliography"}},
	{domain.SectionIntroduction, []string{"introduction", "background", "motivation"}},
	{domain.SectionMethods, []string{"method", "experimental setup", "procedure", "materials"}},
	{domain.SectionResults, []string{"result", "finding", "evaluation", "experiment"}},
	{domain.SectionDiscussion, []string{"discussion", "analysis"}},
	{domain.SectionConclusion, []string{"conclusion", "summary", "outlook"}},
}
