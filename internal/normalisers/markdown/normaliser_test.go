package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.Equal(t, "markdown", normaliser.Name())
	assert.Equal(t, 50, normaliser.Priority())
	assert.Contains(t, normaliser.SupportedExtensions(), ".md")
	assert.Contains(t, normaliser.SupportedMIMETypes(), "text/plain")
}

func TestNormalise_Success(t *testing.T) {
	raw := &domain.RawFile{
		Path:    "/notes/reading.md",
		Ext:     ".md",
		Content: []byte("# Reading list\n\nSee [Bell](https://example.org/bell) on **locality**."),
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "# Reading list\n\nSee Bell on locality.", result.Text)
}

func TestNormalise_NilFile(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"keeps headings", "## Methods\nText", "## Methods\nText"},
		{"code block removed", "Before\n```go\nfmt.Println()\n```\nAfter", "Before\n\nAfter"},
		{"inline code kept", "Call `Search` now", "Call Search now"},
		{"image alt text", "![setup diagram](img.png)", "setup diagram"},
		{"link text", "[paper](https://arxiv.org)", "paper"},
		{"bold and italic", "**bold** and *italic* and __strong__", "bold and italic and strong"},
		{"snake case untouched", "use chunk_size here", "use chunk_size here"},
		{"blockquote", "> quoted line", "quoted line"},
		{"lists", "- one\n* two\n1. three", "one\ntwo\nthree"},
		{"front matter", "---\ntitle: x\n---\nBody", "Body"},
		{"horizontal rule", "a\n\n---\n\nb", "a\n\nb"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, stripMarkdown(tc.input))
		})
	}
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}
