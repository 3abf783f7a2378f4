package driven

import (
	"context"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// NormaliserRegistry selects the appropriate normaliser for a file.
// It keeps a priority-ordered list of normalisers per extension.
type NormaliserRegistry interface {
	// Normalise extracts text using the best matching normaliser.
	// Returns the normaliser used alongside its result.
	Normalise(ctx context.Context, raw *domain.RawFile) (Normaliser, *NormaliseResult, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// Lookup returns the preferred normaliser for an extension.
	Lookup(ext string) (Normaliser, bool)

	// SupportedExtensions returns every extension that can be extracted.
	SupportedExtensions() []string
}
