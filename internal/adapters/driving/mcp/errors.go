// Package mcp provides an MCP (Model Context Protocol) server adapter for
// folio. It lets a chat layer search a corpus and read its statistics.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrMissingCorpusManager is returned when the corpus manager is not provided.
var ErrMissingCorpusManager = errors.New("mcp: corpus manager is required")

// ErrNoCorpus is returned by a tool call that names no corpus when the
// server has no default.
var ErrNoCorpus = errors.New("mcp: no corpus given and no default configured")
