package mcp

import (
	"github.com/custodia-labs/folio/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides search and statistics.
	Search driving.SearchService

	// Corpora lists and describes corpora on disk.
	Corpora driving.CorpusManager
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Corpora == nil {
		return ErrMissingCorpusManager
	}
	return nil
}
