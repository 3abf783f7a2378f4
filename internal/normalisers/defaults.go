package normalisers

import (
	"github.com/custodia-labs/folio/internal/normalisers/html"
	"github.com/custodia-labs/folio/internal/normalisers/latex"
	"github.com/custodia-labs/folio/internal/normalisers/markdown"
	"github.com/custodia-labs/folio/internal/normalisers/pdf"
	"github.com/custodia-labs/folio/internal/normalisers/plaintext"
)

// NewDefaultRegistry returns a registry holding every built-in normaliser.
// pdfFallback enables pdftotext for PDFs the built-in reader cannot read.
func NewDefaultRegistry(pdfFallback bool) *Registry {
	r := NewRegistry()
	r.Register(pdf.New(pdfFallback))
	r.Register(latex.New())
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	return r
}
