package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/folio/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for folio resources.
	uriScheme = "folio://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "corpora",
		Name:        "corpora",
		Description: "List of all corpora",
		MIMEType:    "application/json",
	}, s.handleCorporaResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "corpus/{name}",
		Name:        "corpus-descriptor",
		Description: "Descriptor of a corpus: model, chunking and counts",
		MIMEType:    "application/json",
	}, s.handleCorpusResource)
}

// handleCorporaResource returns every corpus on disk.
func (s *Server) handleCorporaResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	list, err := s.ports.Corpora.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing corpora: %w", err)
	}
	if list == nil {
		list = []domain.CorpusInfo{}
	}
	return jsonResource(req.Params.URI, list)
}

// handleCorpusResource returns the descriptor of one corpus.
func (s *Server) handleCorpusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	name := extractCorpusName(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	desc, err := s.ports.Corpora.Describe(ctx, name)
	if errors.Is(err, domain.ErrCorpusNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("describing corpus: %w", err)
	}
	return jsonResource(req.Params.URI, desc)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractCorpusName extracts the name from a URI like folio://corpus/{name}.
// The name may be percent-encoded.
func extractCorpusName(uri string) string {
	const prefix = uriScheme + "corpus/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	name, err := url.PathUnescape(strings.TrimPrefix(uri, prefix))
	if err != nil || strings.Contains(name, "/") {
		return ""
	}
	return name
}
