package chunker

import (
	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure StructureAware implements the interface.
var _ driven.Chunker = (*StructureAware)(nil)

// StructureAware packs whole sentences, headings and equation blocks into
// chunks of about size words. It closes a chunk at a heading once the
// chunk is at least half full, keeps display equations intact up to
// size+overlap words, and carries trailing whole sentences of at most
// overlap words into the next chunk. Units longer than the limit are
// split on word boundaries.
type StructureAware struct {
	size    int
	overlap int
}

// NewStructureAware creates a structure-aware chunker.
// Returns domain.ErrInvalidChunking when overlap >= size.
func NewStructureAware(size, overlap int) (*StructureAware, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	return &StructureAware{size: size, overlap: overlap}, nil
}

// Strategy returns domain.ChunkStrategyStructureAware.
func (s *StructureAware) Strategy() domain.ChunkStrategy {
	return domain.ChunkStrategyStructureAware
}

// Size returns the target chunk size in words.
func (s *StructureAware) Size() int { return s.size }

// Overlap returns the maximum carried overlap in words.
func (s *StructureAware) Overlap() int { return s.overlap }

// Chunk segments text and packs the segments into tagged chunks.
func (s *StructureAware) Chunk(text string, src domain.ChunkSource) []domain.Chunk {
	units := segment(text)
	if len(units) == 0 {
		return nil
	}

	var stream []string
	for _, u := range units {
		stream = append(stream, u.words...)
	}

	p := &packer{size: s.size, overlap: s.overlap}
	for _, u := range units {
		p.push(u)
	}
	p.emit(false)

	chunks := make([]domain.Chunk, 0, len(p.spans))
	current := domain.SectionKind("")
	for i, sp := range p.spans {
		c := newChunk(src, i, stream, sp.start, sp.end)
		c.Tags = s.tag(c.Text, sp, i, len(p.spans), &current)
		chunks = append(chunks, c)
	}

	setTotals(chunks)
	return chunks
}

func (s *StructureAware) tag(text string, sp span, index, total int, current *domain.SectionKind) *domain.StructureTags {
	section := domain.SectionKind("")
	hasEquation := false
	split := false
	for _, u := range sp.units {
		switch u.kind {
		case unitHeading:
			if section == "" {
				section = u.section
			}
			*current = u.section
		case unitEquation:
			hasEquation = true
		}
		split = split || u.split
	}
	if section == "" {
		section = *current
	}
	if section == "" {
		section = detectSection(text, index, total)
	}

	return &domain.StructureTags{
		Section:     section,
		HasEquation: hasEquation || detectEquations(text),
		HasCitation: detectCitations(text),
		Confidence:  confidence(text, sp.end-sp.start, s.size, split),
	}
}

// packer accumulates units into spans of the word stream.
type packer struct {
	size    int
	overlap int

	cur     []unit
	carried int // leading units of cur copied from the previous span
	spans   []span
}

type span struct {
	start int
	end   int
	units []unit
}

func countWords(units []unit) int {
	n := 0
	for _, u := range units {
		n += len(u.words)
	}
	return n
}

func (p *packer) fresh() int {
	return countWords(p.cur[p.carried:])
}

func (p *packer) limit(u unit) int {
	if u.kind == unitEquation {
		return p.size + p.overlap
	}
	return p.size
}

func (p *packer) push(u unit) {
	n := len(u.words)

	if u.kind == unitHeading && p.fresh() >= p.size/2 {
		p.emit(false)
	}

	if n > p.limit(u) {
		p.emit(true)
		p.split(u)
		return
	}

	if p.fresh() > 0 && countWords(p.cur)+n > p.size {
		p.emit(true)
	}

	// Drop carried context that would push the chunk past its size.
	for p.carried > 0 && countWords(p.cur)+n > p.size {
		p.cur = p.cur[1:]
		p.carried--
	}

	p.cur = append(p.cur, u)
}

// emit closes the current span. With carry set, trailing whole units of
// at most overlap words seed the next span. Nothing is emitted when the
// current span holds only carried units.
func (p *packer) emit(carry bool) {
	if len(p.cur) == 0 || p.fresh() == 0 {
		return
	}

	first, last := p.cur[0], p.cur[len(p.cur)-1]
	p.spans = append(p.spans, span{
		start: first.start,
		end:   last.start + len(last.words),
		units: p.cur,
	})

	if !carry || p.overlap == 0 {
		p.cur, p.carried = nil, 0
		return
	}

	k, total := len(p.cur), 0
	for k > max(p.carried, 1) && total+len(p.cur[k-1].words) <= p.overlap {
		total += len(p.cur[k-1].words)
		k--
	}
	next := make([]unit, len(p.cur)-k)
	copy(next, p.cur[k:])
	p.cur, p.carried = next, len(next)
}

// split cuts an oversized unit into windows of size words overlapping by
// overlap words. The last window stays open so following units can join.
func (p *packer) split(u unit) {
	stride := p.size - p.overlap
	for off := 0; ; off += stride {
		end := min(off+p.size, len(u.words))
		p.cur = []unit{{
			kind:  u.kind,
			words: u.words[off:end],
			start: u.start + off,
			split: true,
		}}
		p.carried = 0
		if end >= len(u.words) {
			return
		}
		p.emit(false)
	}
}
