package mcp

import (
	"context"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

// mockSearcher is a mock implementation of driving.Searcher.
type mockSearcher struct {
	results []domain.RankedResult
	err     error
	queries []string
}

func (m *mockSearcher) Search(
	_ context.Context,
	query string,
	_ domain.SearchOptions,
) ([]domain.RankedResult, error) {
	m.queries = append(m.queries, query)
	return m.results, m.err
}

// mockSyncer is a mock implementation of driving.Syncer.
type mockSyncer struct {
	report *domain.SyncReport
	err    error
	modes  []domain.SyncMode
}

func (m *mockSyncer) Sync(
	_ context.Context,
	_ string,
	mode domain.SyncMode,
) (*domain.SyncReport, error) {
	m.modes = append(m.modes, mode)
	return m.report, m.err
}

// mockDocuments is a mock implementation of driving.Documents.
type mockDocuments struct {
	document  *domain.Document
	documents []domain.Document
	err       error
}

func (m *mockDocuments) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocuments) List(_ context.Context, _ domain.SearchFilters) ([]domain.Document, error) {
	return m.documents, m.err
}

// mockGraph is a mock implementation of driving.Graph.
type mockGraph struct {
	feature  *domain.Feature
	relation *domain.FeatureRelation
	mapping  *domain.DocumentMapping
	detail   *domain.FeatureDetail
	features []domain.Feature
	err      error
}

func (m *mockGraph) AddFeature(
	_ context.Context,
	_ string,
	_ domain.Feature,
	_ []string,
) (*domain.Feature, error) {
	return m.feature, m.err
}

func (m *mockGraph) RelateFeatures(
	_ context.Context,
	_, _ string,
	_ domain.RelationType,
	_ float64,
) (*domain.FeatureRelation, error) {
	return m.relation, m.err
}

func (m *mockGraph) MapFeatureDocument(_ context.Context, _, _ string) (*domain.DocumentMapping, error) {
	return m.mapping, m.err
}

func (m *mockGraph) GetFeature(_ context.Context, _ string) (*domain.FeatureDetail, error) {
	return m.detail, m.err
}

func (m *mockGraph) ListFeatures(_ context.Context, _ string) ([]domain.Feature, error) {
	return m.features, m.err
}

// mockMappings is a mock implementation of driving.Mappings.
type mockMappings struct {
	service  *domain.Service
	services []domain.Service
	mapping  *domain.DocumentMapping
	mappings []domain.DocumentMapping
	err      error
}

func (m *mockMappings) AddService(_ context.Context, _, _, _ string) (*domain.Service, error) {
	return m.service, m.err
}

func (m *mockMappings) RemoveService(_ context.Context, _ string) error {
	return m.err
}

func (m *mockMappings) ListServices(_ context.Context) ([]domain.Service, error) {
	return m.services, m.err
}

func (m *mockMappings) AddMapping(
	_ context.Context,
	_, _, _ string,
	_ domain.MappingOptions,
) (*domain.DocumentMapping, error) {
	return m.mapping, m.err
}

func (m *mockMappings) GetMappings(_ context.Context, _ string) ([]domain.DocumentMapping, error) {
	return m.mappings, m.err
}

func (m *mockMappings) RemoveMapping(_ context.Context, _, _, _ string) error {
	return m.err
}

func (m *mockMappings) SetPrimary(_ context.Context, _ string, _ int64) error {
	return m.err
}
