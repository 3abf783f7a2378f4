// Package chunker splits extracted text into chunks sized in words.
//
// Two strategies are provided: FixedWindow slides a word window with a
// fixed stride, StructureAware packs sentences, headings and equation
// blocks toward the target size and records structural tags. The
// strategy is chosen once, when the chunker is constructed.
package chunker

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of words per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping words.
const DefaultChunkOverlap = 200

// New returns the chunker for strategy. An empty strategy selects
// structure-aware chunking.
func New(strategy domain.ChunkStrategy, size, overlap int) (driven.Chunker, error) {
	switch strategy {
	case domain.ChunkStrategyFixedWindow:
		return NewFixedWindow(size, overlap)
	case domain.ChunkStrategyStructureAware, "":
		return NewStructureAware(size, overlap)
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", domain.ErrInvalidChunking, strategy)
	}
}

// FromSettings builds the chunker described by cfg.
func FromSettings(cfg domain.ChunkingSettings) (driven.Chunker, error) {
	return New(cfg.Strategy, cfg.Size, cfg.Overlap)
}

// validate rejects configurations where the window cannot advance.
func validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", domain.ErrInvalidChunking, size)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative, got %d", domain.ErrInvalidChunking, overlap)
	}
	if overlap >= size {
		return fmt.Errorf("%w: overlap %d must be smaller than size %d", domain.ErrInvalidChunking, overlap, size)
	}
	return nil
}

// ExpectedCount returns the number of fixed-window chunks produced for a
// document of words words: ceil((W-O)/(S-O)) when W > O, otherwise one
// chunk for any non-empty document.
func ExpectedCount(words, size, overlap int) int {
	if words <= 0 {
		return 0
	}
	if words <= overlap {
		return 1
	}
	stride := size - overlap
	return (words - overlap + stride - 1) / stride
}

func newChunk(src domain.ChunkSource, index int, stream []string, start, end int) domain.Chunk {
	return domain.Chunk{
		DocumentPath: src.Path,
		DocumentName: src.Name,
		SourceTag:    src.SourceTag,
		Index:        index,
		Text:         strings.Join(stream[start:end], " "),
		StartWord:    start,
		EndWord:      end,
	}
}

func setTotals(chunks []domain.Chunk) {
	for i := range chunks {
		chunks[i].Total = len(chunks)
	}
}
