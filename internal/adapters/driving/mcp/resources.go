package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

// uriScheme is the custom URI scheme for docfold resources.
const uriScheme = "docfold://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing services.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "services",
		Name:        "services",
		Description: "List of all registered services",
		MIMEType:    "application/json",
	}, s.handleServicesResource)

	// Static resource for cache statistics.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Row counts of the main cache tables",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	// Template for a service's mappings.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "services/{serviceName}/mappings",
		Name:        "service-mappings",
		Description: "Documentation mappings of a specific service, primary first",
		MIMEType:    "application/json",
	}, s.handleMappingsResource)

	// Template for document content.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document-content",
		Description: "Content of a specific cached document",
		MIMEType:    "text/plain",
	}, s.handleDocumentContentResource)
}

// handleServicesResource returns a list of all registered services.
func (s *Server) handleServicesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Mappings == nil {
		return jsonContents(req.Params.URI, []ServiceOutput{})
	}

	svcs, err := s.ports.Mappings.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}

	infos := make([]ServiceOutput, len(svcs))
	for i := range svcs {
		infos[i] = ServiceOutput{
			Name:        svcs[i].Name,
			Path:        svcs[i].Path,
			Description: svcs[i].Description,
		}
	}

	return jsonContents(req.Params.URI, infos)
}

// handleStatsResource returns cache table counts.
func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Stats == nil {
		return jsonContents(req.Params.URI, map[string]int64{})
	}

	counts, err := s.ports.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}

	return jsonContents(req.Params.URI, counts)
}

// handleMappingsResource returns the mappings of a specific service.
func (s *Server) handleMappingsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Mappings == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	serviceName := extractServiceName(req.Params.URI)
	if serviceName == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	mappings, err := s.ports.Mappings.GetMappings(ctx, serviceName)
	if err != nil {
		return nil, fmt.Errorf("listing mappings: %w", err)
	}

	infos := make([]MappingOutput, len(mappings))
	for i := range mappings {
		infos[i] = mappingOutput(&mappings[i])
	}

	return jsonContents(req.Params.URI, infos)
}

// handleDocumentContentResource returns the content of a cached document.
func (s *Server) handleDocumentContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Documents == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Documents.Get(ctx, docID)
	if err != nil {
		if isNotFound(err) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("getting document: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     doc.Content,
		}},
	}, nil
}

// extractServiceName extracts the service name from a URI like
// docfold://services/{serviceName}/mappings.
func extractServiceName(uri string) string {
	const prefix = uriScheme + "services/"
	const suffix = "/mappings"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}

// extractDocumentID extracts the document ID from a URI like
// docfold://documents/{documentId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

func jsonContents(uri string, payload any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
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
