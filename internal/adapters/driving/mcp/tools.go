package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query   string   `json:"query" jsonschema:"the question or phrase to search for"`
	K       int      `json:"k,omitempty" jsonschema:"maximum number of chunks to return (default from configuration)"`
	Context []string `json:"context,omitempty" jsonschema:"recent conversation turns, oldest first, merged into the query"`
	Corpus  string   `json:"corpus,omitempty" jsonschema:"corpus to search (default: the served corpus)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single ranked chunk.
type SearchResultOutput struct {
	Document  string  `json:"document"`
	Path      string  `json:"path"`
	SourceTag string  `json:"source_tag"`
	Chunk     int     `json:"chunk"`
	Of        int     `json:"of"`
	Score     float64 `json:"score"`
	Section   string  `json:"section,omitempty"`
	Equation  bool    `json:"has_equation,omitempty"`
	Citation  bool    `json:"has_citation,omitempty"`
	Text      string  `json:"text"`
}

// CorpusInput names an optional corpus.
type CorpusInput struct {
	Corpus string `json:"corpus,omitempty" jsonschema:"corpus to inspect (default: the served corpus)"`
}

// ListInput is the empty input of list_corpora.
type ListInput struct{}

// ListOutput is the output schema for list_corpora.
type ListOutput struct {
	Corpora []domain.CorpusInfo `json:"corpora"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search a research corpus and return the most similar chunks",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "statistics",
		Description: "Summarise a corpus: documents, words, chunks and per-source counts",
	}, s.handleStatistics)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_corpora",
		Description: "List every corpus with its document and chunk counts",
	}, s.handleListCorpora)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	corpus, err := s.pick(input.Corpus)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	opts := domain.SearchOptions{K: input.K, Context: input.Context}
	results, err := s.ports.Search.Search(ctx, corpus, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		c := results[i].Chunk
		out := SearchResultOutput{
			Document:  c.DocumentName,
			Path:      c.DocumentPath,
			SourceTag: c.SourceTag,
			Chunk:     c.Index + 1,
			Of:        c.Total,
			Score:     results[i].Score,
			Text:      c.Text,
		}
		if c.Tags != nil {
			out.Section = string(c.Tags.Section)
			out.Equation = c.Tags.HasEquation
			out.Citation = c.Tags.HasCitation
		}
		output.Results[i] = out
	}

	return nil, output, nil
}

// handleStatistics handles the statistics tool invocation.
func (s *Server) handleStatistics(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CorpusInput,
) (*mcp.CallToolResult, domain.CorpusStats, error) {
	corpus, err := s.pick(input.Corpus)
	if err != nil {
		return nil, domain.CorpusStats{}, err
	}

	stats, err := s.ports.Search.Statistics(ctx, corpus)
	if err != nil {
		return nil, domain.CorpusStats{}, err
	}
	return nil, stats, nil
}

// handleListCorpora handles the list_corpora tool invocation.
func (s *Server) handleListCorpora(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListInput,
) (*mcp.CallToolResult, ListOutput, error) {
	list, err := s.ports.Corpora.List(ctx)
	if err != nil {
		return nil, ListOutput{}, err
	}
	if list == nil {
		list = []domain.CorpusInfo{}
	}
	return nil, ListOutput{Corpora: list}, nil
}
