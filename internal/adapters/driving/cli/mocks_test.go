package cli

import (
	"context"
	"time"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

// Shared mocks for the command tests. setupTestServices swaps the
// injected services for mocks and returns a restore func.

type mockSyncer struct {
	report *domain.SyncReport
	err    error
	scopes []string
	modes  []domain.SyncMode
}

func (m *mockSyncer) Sync(_ context.Context, scope string, mode domain.SyncMode) (*domain.SyncReport, error) {
	m.scopes = append(m.scopes, scope)
	m.modes = append(m.modes, mode)
	if m.err != nil {
		return nil, m.err
	}
	if m.report != nil {
		return m.report, nil
	}
	return &domain.SyncReport{Scope: scope, Mode: mode}, nil
}

type mockSearcher struct {
	results []domain.RankedResult
	err     error
	queries []string
	opts    []domain.SearchOptions
}

func (m *mockSearcher) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.RankedResult, error) {
	m.queries = append(m.queries, query)
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

type mockDocuments struct {
	document  *domain.Document
	documents []domain.Document
	err       error
	refs      []string
}

func (m *mockDocuments) Get(_ context.Context, ref string) (*domain.Document, error) {
	m.refs = append(m.refs, ref)
	if m.err != nil {
		return nil, m.err
	}
	return m.document, nil
}

func (m *mockDocuments) List(_ context.Context, _ domain.SearchFilters) ([]domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.documents, nil
}

type mockGraph struct {
	feature  *domain.Feature
	relation *domain.FeatureRelation
	mapping  *domain.DocumentMapping
	detail   *domain.FeatureDetail
	features []domain.Feature
	err      error
}

func (m *mockGraph) AddFeature(_ context.Context, _ string, f domain.Feature, _ []string) (*domain.Feature, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.feature != nil {
		return m.feature, nil
	}
	f.ID = "feat-1"
	return &f, nil
}

func (m *mockGraph) RelateFeatures(_ context.Context, parentID, childID string, relType domain.RelationType, strength float64) (*domain.FeatureRelation, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.relation != nil {
		return m.relation, nil
	}
	return &domain.FeatureRelation{ParentID: parentID, ChildID: childID, Type: relType, Strength: strength}, nil
}

func (m *mockGraph) MapFeatureDocument(_ context.Context, _, _ string) (*domain.DocumentMapping, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.mapping, nil
}

func (m *mockGraph) GetFeature(_ context.Context, _ string) (*domain.FeatureDetail, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.detail, nil
}

func (m *mockGraph) ListFeatures(_ context.Context, _ string) ([]domain.Feature, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.features, nil
}

type mockMappings struct {
	service  *domain.Service
	services []domain.Service
	mapping  *domain.DocumentMapping
	mappings []domain.DocumentMapping
	err      error
	removed  []string
	primary  []int64
}

func (m *mockMappings) AddService(_ context.Context, name, path, description string) (*domain.Service, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.service != nil {
		return m.service, nil
	}
	return &domain.Service{ID: 1, Name: name, Path: path, Description: description}, nil
}

func (m *mockMappings) RemoveService(_ context.Context, name string) error {
	m.removed = append(m.removed, name)
	return m.err
}

func (m *mockMappings) ListServices(_ context.Context) ([]domain.Service, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.services, nil
}

func (m *mockMappings) AddMapping(_ context.Context, _, provider, location string, opts domain.MappingOptions) (*domain.DocumentMapping, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.mapping != nil {
		return m.mapping, nil
	}
	return &domain.DocumentMapping{ID: 7, Provider: provider, Location: location, Title: opts.Title, IsPrimary: opts.IsPrimary}, nil
}

func (m *mockMappings) GetMappings(_ context.Context, _ string) ([]domain.DocumentMapping, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.mappings, nil
}

func (m *mockMappings) RemoveMapping(_ context.Context, serviceName, provider, location string) error {
	m.removed = append(m.removed, serviceName+"/"+provider+"/"+location)
	return m.err
}

func (m *mockMappings) SetPrimary(_ context.Context, _ string, mappingID int64) error {
	m.primary = append(m.primary, mappingID)
	return m.err
}

type mockGeneration struct {
	diff    *domain.Diff
	cached  bool
	records []domain.GenerationRecord
	latest  *domain.GenerationRecord
	err     error
	params  []domain.ExtractParams
}

func (m *mockGeneration) ExtractDiff(_ context.Context, req domain.ExtractParams) (*domain.Diff, bool, error) {
	m.params = append(m.params, req)
	if m.err != nil {
		return nil, false, m.err
	}
	return m.diff, m.cached, nil
}

func (m *mockGeneration) RecordGeneration(_ context.Context, _ domain.GenerationRecord) (int64, error) {
	return 0, m.err
}

func (m *mockGeneration) LatestSuccess(_ context.Context, _, _, _ string) (*domain.GenerationRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.latest, nil
}

func (m *mockGeneration) History(_ context.Context, _ string, _ int) ([]domain.GenerationRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

type mockConfigStore struct {
	values map[string]any
	err    error
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{values: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *mockConfigStore) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	return keys
}

func (m *mockConfigStore) GetString(key string) string {
	if s, ok := m.values[key].(string); ok {
		return s
	}
	return ""
}

func (m *mockConfigStore) GetInt(key string) int {
	if i, ok := m.values[key].(int64); ok {
		return int(i)
	}
	return 0
}

func (m *mockConfigStore) GetFloat(key string) float64 {
	if f, ok := m.values[key].(float64); ok {
		return f
	}
	return 0
}

func (m *mockConfigStore) GetBool(key string) bool {
	if b, ok := m.values[key].(bool); ok {
		return b
	}
	return false
}

func (m *mockConfigStore) GetStringSlice(key string) []string {
	if s, ok := m.values[key].([]string); ok {
		return s
	}
	return nil
}

func (m *mockConfigStore) Set(key string, value any) error {
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

// setupTestServices installs fresh mocks and returns a restore func.
func setupTestServices() func() {
	oldSync := syncService
	oldSearch := searchService
	oldDocuments := documentService
	oldGraph := graphService
	oldMappings := mappingService
	oldGeneration := generationService
	oldConfig := configStore
	oldTemplates := templateStore
	oldStats := statsFn

	syncService = &mockSyncer{}
	searchService = &mockSearcher{}
	documentService = &mockDocuments{}
	graphService = &mockGraph{}
	mappingService = &mockMappings{}
	generationService = &mockGeneration{}
	configStore = newMockConfigStore()
	statsFn = func(_ context.Context) (map[string]int64, error) {
		return map[string]int64{}, nil
	}

	return func() {
		syncService = oldSync
		searchService = oldSearch
		documentService = oldDocuments
		graphService = oldGraph
		mappingService = oldMappings
		generationService = oldGeneration
		configStore = oldConfig
		templateStore = oldTemplates
		statsFn = oldStats
	}
}

func testDocument() *domain.Document {
	return &domain.Document{
		ID:        "doc-1",
		SourceID:  "12345",
		Provider:  "confluence",
		Scope:     "ENG",
		Title:     "Payment API",
		URL:       "https://wiki.example.com/x/12345",
		Content:   "How to charge a card.",
		Team:      "payments",
		Tags:      []string{"api"},
		UpdatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		FetchedAt: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
	}
}
