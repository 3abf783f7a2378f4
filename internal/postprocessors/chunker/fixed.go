package chunker

import (
	"strings"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure FixedWindow implements the interface.
var _ driven.Chunker = (*FixedWindow)(nil)

// FixedWindow slides a window of size words with stride size-overlap.
// The final chunk may be short.
type FixedWindow struct {
	size    int
	overlap int
}

// NewFixedWindow creates a fixed-window chunker.
// Returns domain.ErrInvalidChunking when overlap >= size.
func NewFixedWindow(size, overlap int) (*FixedWindow, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	return &FixedWindow{size: size, overlap: overlap}, nil
}

// Strategy returns domain.ChunkStrategyFixedWindow.
func (f *FixedWindow) Strategy() domain.ChunkStrategy {
	return domain.ChunkStrategyFixedWindow
}

// Size returns the window size in words.
func (f *FixedWindow) Size() int { return f.size }

// Overlap returns the overlap in words.
func (f *FixedWindow) Overlap() int { return f.overlap }

// Chunk splits text into overlapping word windows.
func (f *FixedWindow) Chunk(text string, src domain.ChunkSource) []domain.Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	stride := f.size - f.overlap
	chunks := make([]domain.Chunk, 0, ExpectedCount(len(words), f.size, f.overlap))

	for start := 0; ; start += stride {
		end := min(start+f.size, len(words))
		chunks = append(chunks, newChunk(src, len(chunks), words, start, end))
		if end >= len(words) {
			break
		}
	}

	setTotals(chunks)
	return chunks
}
