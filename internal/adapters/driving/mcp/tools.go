package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

// SearchInput is the input schema for the search_knowledge tool.
type SearchInput struct {
	Query    string   `json:"query" jsonschema:"the search query"`
	Team     string   `json:"team,omitempty" jsonschema:"restrict results to a team"`
	Tags     []string `json:"tags,omitempty" jsonschema:"restrict results to entries carrying all tags"`
	Provider string   `json:"provider,omitempty" jsonschema:"restrict results to one document source"`
	Limit    int      `json:"limit,omitempty" jsonschema:"maximum number of results (default 10)"`
}

// SearchOutput is the output schema for the search_knowledge tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput is a single ranked hit.
type SearchResultOutput struct {
	Kind            string   `json:"kind"`
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Location        string   `json:"location,omitempty"`
	Team            string   `json:"team,omitempty"`
	Summary         string   `json:"summary,omitempty"`
	Score           float64  `json:"score"`
	RelatedServices []string `json:"related_services,omitempty"`
	RelatedFeatures []string `json:"related_features,omitempty"`
}

// GetDocumentInput is the input schema for the get_document tool.
type GetDocumentInput struct {
	Ref string `json:"ref" jsonschema:"document id or URL"`
}

// DocumentOutput is a cached document with its metadata.
type DocumentOutput struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	URL       string   `json:"url,omitempty"`
	Provider  string   `json:"provider"`
	Scope     string   `json:"scope"`
	Team      string   `json:"team,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Content   string   `json:"content,omitempty"`
	UpdatedAt string   `json:"updated_at"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct {
	Team     string   `json:"team,omitempty" jsonschema:"restrict to a team"`
	Tags     []string `json:"tags,omitempty" jsonschema:"restrict to documents carrying all tags"`
	Provider string   `json:"provider,omitempty" jsonschema:"restrict to one document source"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// SyncInput is the input schema for the sync_documents tool.
type SyncInput struct {
	Scope string `json:"scope" jsonschema:"the scope to synchronise (space key, folder id)"`
	Full  bool   `json:"full,omitempty" jsonschema:"refetch every document instead of only changed ones"`
}

// SyncOutput is the output schema for the sync_documents tool.
type SyncOutput struct {
	Scope     string   `json:"scope"`
	Mode      string   `json:"mode"`
	Added     int      `json:"added"`
	Updated   int      `json:"updated"`
	Removed   int      `json:"removed"`
	Unchanged int      `json:"unchanged"`
	Failed    []string `json:"failed,omitempty"`
}

// GetFeatureInput is the input schema for the get_feature tool.
type GetFeatureInput struct {
	FeatureID string `json:"feature_id" jsonschema:"the feature identifier"`
}

// FeatureOutput is a feature summary.
type FeatureOutput struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Relevance   float64  `json:"relevance"`
}

// FeatureDetailOutput is a feature with its graph neighbourhood.
type FeatureDetailOutput struct {
	Feature   FeatureOutput   `json:"feature"`
	Service   string          `json:"service"`
	Parents   []FeatureOutput `json:"parents,omitempty"`
	Children  []FeatureOutput `json:"children,omitempty"`
	Documents []MappingOutput `json:"documents,omitempty"`
}

// MapFeatureDocumentInput is the input schema for map_feature_document.
type MapFeatureDocumentInput struct {
	FeatureID   string `json:"feature_id" jsonschema:"the feature identifier"`
	DocumentRef string `json:"document_ref" jsonschema:"mapping id, document id, or provider location"`
}

// ListFeaturesInput is the input schema for the list_features tool.
type ListFeaturesInput struct {
	Team string `json:"team,omitempty" jsonschema:"restrict to a team"`
}

// ListFeaturesOutput is the output schema for the list_features tool.
type ListFeaturesOutput struct {
	Features []FeatureOutput `json:"features"`
	Count    int             `json:"count"`
}

// ServiceNameInput identifies a service by name.
type ServiceNameInput struct {
	Service string `json:"service" jsonschema:"the service name"`
}

// MappingOutput is one documentation mapping.
type MappingOutput struct {
	ID       int64  `json:"id"`
	Provider string `json:"provider"`
	Location string `json:"location"`
	Title    string `json:"title,omitempty"`
	Section  string `json:"section,omitempty"`
	Primary  bool   `json:"primary"`
}

// MappingsOutput is a service's mapping list.
type MappingsOutput struct {
	Service  string          `json:"service"`
	Mappings []MappingOutput `json:"mappings"`
	Count    int             `json:"count"`
}

// AddMappingInput is the input schema for the add_mapping tool.
type AddMappingInput struct {
	Service  string `json:"service" jsonschema:"the service name"`
	Provider string `json:"provider" jsonschema:"documentation backend (confluence, gdrive, markdown)"`
	Location string `json:"location" jsonschema:"provider-specific address (page id, file path, URL)"`
	Title    string `json:"title,omitempty" jsonschema:"document title"`
	Section  string `json:"section,omitempty" jsonschema:"section anchor within the document"`
	Primary  bool   `json:"primary,omitempty" jsonschema:"mark as the service's main page"`
}

// ListServicesOutput is the output schema for the list_services tool.
type ListServicesOutput struct {
	Services []ServiceOutput `json:"services"`
	Count    int             `json:"count"`
}

// ServiceOutput is one registered service.
type ServiceOutput struct {
	Name        string `json:"name"`
	Path        string `json:"path,omitempty"`
	Description string `json:"description,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_knowledge",
		Description: "Hybrid keyword + semantic search across cached documentation and the feature graph",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document",
		Description: "Fetch a cached document with its full content by id or URL",
	}, s.handleGetDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List cached document summaries, optionally filtered by team, tags, or source",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sync_documents",
		Description: "Synchronise the cache for one scope against its remote source",
	}, s.handleSync)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_feature",
		Description: "Fetch a feature with its parents, children, and linked documents",
	}, s.handleGetFeature)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "map_feature_document",
		Description: "Link a documentation location to a feature",
	}, s.handleMapFeatureDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_features",
		Description: "List features, optionally filtered by team",
	}, s.handleListFeatures)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_service_mapping",
		Description: "Get a service's documentation mappings, primary first",
	}, s.handleGetServiceMapping)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_mapping",
		Description: "Link a service to a documentation location",
	}, s.handleAddMapping)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_services",
		Description: "List all registered services",
	}, s.handleListServices)
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	opts := domain.SearchOptions{
		Limit: limit,
		Filters: domain.SearchFilters{
			Team:     input.Team,
			Tags:     input.Tags,
			Provider: input.Provider,
		},
	}

	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		r := &results[i]
		output.Results[i] = SearchResultOutput{
			Kind:            string(r.Kind),
			ID:              r.ID,
			Title:           r.Title,
			Location:        r.Location,
			Team:            r.Team,
			Summary:         r.Summary,
			Score:           r.Score,
			RelatedServices: r.RelatedServices,
			RelatedFeatures: r.RelatedFeatures,
		}
	}

	return nil, output, nil
}

func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDocumentInput,
) (*mcp.CallToolResult, DocumentOutput, error) {
	if s.ports.Documents == nil {
		return nil, DocumentOutput{}, errors.New("document service not configured")
	}

	doc, err := s.ports.Documents.Get(ctx, input.Ref)
	if err != nil {
		return nil, DocumentOutput{}, err
	}

	return nil, documentOutput(doc, true), nil
}

func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	if s.ports.Documents == nil {
		return nil, ListDocumentsOutput{}, errors.New("document service not configured")
	}

	filters := domain.SearchFilters{
		Team:     input.Team,
		Tags:     input.Tags,
		Provider: input.Provider,
	}

	docs, err := s.ports.Documents.List(ctx, filters)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i := range docs {
		output.Documents[i] = documentOutput(&docs[i], false)
	}

	return nil, output, nil
}

func (s *Server) handleSync(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SyncInput,
) (*mcp.CallToolResult, SyncOutput, error) {
	if s.ports.Sync == nil {
		return nil, SyncOutput{}, errors.New("sync service not configured")
	}

	mode := domain.SyncModeIncremental
	if input.Full {
		mode = domain.SyncModeFull
	}

	report, err := s.ports.Sync.Sync(ctx, input.Scope, mode)
	if err != nil {
		return nil, SyncOutput{}, err
	}

	output := SyncOutput{
		Scope:     report.Scope,
		Mode:      string(report.Mode),
		Added:     report.Added,
		Updated:   report.Updated,
		Removed:   report.Removed,
		Unchanged: report.Unchanged,
	}
	for _, f := range report.Failed {
		output.Failed = append(output.Failed, f.SourceID+": "+f.Reason)
	}

	return nil, output, nil
}

func (s *Server) handleGetFeature(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetFeatureInput,
) (*mcp.CallToolResult, FeatureDetailOutput, error) {
	if s.ports.Graph == nil {
		return nil, FeatureDetailOutput{}, errors.New("graph service not configured")
	}

	detail, err := s.ports.Graph.GetFeature(ctx, input.FeatureID)
	if err != nil {
		return nil, FeatureDetailOutput{}, err
	}

	output := FeatureDetailOutput{
		Feature: featureOutput(&detail.Feature),
		Service: detail.ServiceName,
	}
	for i := range detail.Parents {
		output.Parents = append(output.Parents, featureOutput(&detail.Parents[i]))
	}
	for i := range detail.Children {
		output.Children = append(output.Children, featureOutput(&detail.Children[i]))
	}
	for i := range detail.Documents {
		output.Documents = append(output.Documents, mappingOutput(&detail.Documents[i]))
	}

	return nil, output, nil
}

func (s *Server) handleMapFeatureDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MapFeatureDocumentInput,
) (*mcp.CallToolResult, MappingOutput, error) {
	if s.ports.Graph == nil {
		return nil, MappingOutput{}, errors.New("graph service not configured")
	}

	m, err := s.ports.Graph.MapFeatureDocument(ctx, input.FeatureID, input.DocumentRef)
	if err != nil {
		return nil, MappingOutput{}, err
	}

	return nil, mappingOutput(m), nil
}

func (s *Server) handleListFeatures(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListFeaturesInput,
) (*mcp.CallToolResult, ListFeaturesOutput, error) {
	if s.ports.Graph == nil {
		return nil, ListFeaturesOutput{}, errors.New("graph service not configured")
	}

	features, err := s.ports.Graph.ListFeatures(ctx, input.Team)
	if err != nil {
		return nil, ListFeaturesOutput{}, err
	}

	output := ListFeaturesOutput{
		Features: make([]FeatureOutput, len(features)),
		Count:    len(features),
	}
	for i := range features {
		output.Features[i] = featureOutput(&features[i])
	}

	return nil, output, nil
}

func (s *Server) handleGetServiceMapping(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ServiceNameInput,
) (*mcp.CallToolResult, MappingsOutput, error) {
	if s.ports.Mappings == nil {
		return nil, MappingsOutput{}, errors.New("mapping service not configured")
	}

	mappings, err := s.ports.Mappings.GetMappings(ctx, input.Service)
	if err != nil {
		return nil, MappingsOutput{}, err
	}

	output := MappingsOutput{
		Service:  input.Service,
		Mappings: make([]MappingOutput, len(mappings)),
		Count:    len(mappings),
	}
	for i := range mappings {
		output.Mappings[i] = mappingOutput(&mappings[i])
	}

	return nil, output, nil
}

func (s *Server) handleAddMapping(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddMappingInput,
) (*mcp.CallToolResult, MappingOutput, error) {
	if s.ports.Mappings == nil {
		return nil, MappingOutput{}, errors.New("mapping service not configured")
	}

	opts := domain.MappingOptions{
		Title:     input.Title,
		Section:   input.Section,
		IsPrimary: input.Primary,
	}

	m, err := s.ports.Mappings.AddMapping(ctx, input.Service, input.Provider, input.Location, opts)
	if err != nil {
		return nil, MappingOutput{}, err
	}

	return nil, mappingOutput(m), nil
}

func (s *Server) handleListServices(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, ListServicesOutput, error) {
	if s.ports.Mappings == nil {
		return nil, ListServicesOutput{}, errors.New("mapping service not configured")
	}

	svcs, err := s.ports.Mappings.ListServices(ctx)
	if err != nil {
		return nil, ListServicesOutput{}, err
	}

	output := ListServicesOutput{
		Services: make([]ServiceOutput, len(svcs)),
		Count:    len(svcs),
	}
	for i := range svcs {
		output.Services[i] = ServiceOutput{
			Name:        svcs[i].Name,
			Path:        svcs[i].Path,
			Description: svcs[i].Description,
		}
	}

	return nil, output, nil
}

func documentOutput(doc *domain.Document, withContent bool) DocumentOutput {
	out := DocumentOutput{
		ID:        doc.ID,
		Title:     doc.Title,
		URL:       doc.URL,
		Provider:  doc.Provider,
		Scope:     doc.Scope,
		Team:      doc.Team,
		Tags:      doc.Tags,
		UpdatedAt: doc.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if withContent {
		out.Content = doc.Content
	}
	return out
}

func featureOutput(f *domain.Feature) FeatureOutput {
	return FeatureOutput{
		ID:          f.ID,
		Name:        f.Name,
		Type:        string(f.Type),
		Description: f.Description,
		Tags:        f.Tags,
		Relevance:   f.RelevanceScore,
	}
}

func mappingOutput(m *domain.DocumentMapping) MappingOutput {
	return MappingOutput{
		ID:       m.ID,
		Provider: m.Provider,
		Location: m.Location,
		Title:    m.Title,
		Section:  m.Section,
		Primary:  m.IsPrimary,
	}
}
