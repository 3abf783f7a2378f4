package driven

import (
	"context"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// Normaliser extracts plain text from one file format.
// Each normaliser handles specific extensions (e.g. ".pdf", ".tex").
type Normaliser interface {
	// Name identifies the normaliser in document records and logs.
	Name() string

	// SupportedExtensions returns lowercase extensions including the dot.
	SupportedExtensions() []string

	// SupportedMIMETypes returns the sniffed content types this normaliser
	// accepts. A file whose content matches none of them is rejected.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	Priority() int

	// Normalise extracts text from a raw file.
	Normalise(ctx context.Context, raw *domain.RawFile) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
type NormaliseResult struct {
	// Text is the extracted text.
	Text string

	// Method names the extraction path taken (e.g. "pdf-reader",
	// "pdftotext"). Empty means the normaliser's Name.
	Method string
}
