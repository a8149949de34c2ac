package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold-cli/internal/adapters/driven/storage/memory"
	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// --- Mock implementations for search testing ---
// Note: These are prefixed with "search" to avoid conflicts with
// sync_test.go mocks.

// searchMockEmbedder returns a fixed vector per known text and a
// neutral vector otherwise.
type searchMockEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (e *searchMockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	if vec, ok := e.vectors[text]; ok {
		return vec, nil
	}
	return []float32{1, 0, 0}, nil
}

func (e *searchMockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		result[i] = vec
	}
	return result, nil
}

func (e *searchMockEmbedder) Dimensions() int   { return 3 }
func (e *searchMockEmbedder) ModelName() string { return "mock" }
func (e *searchMockEmbedder) Close() error      { return nil }

// searchFixture bundles the stores behind a search service.
type searchFixture struct {
	docs     *memory.DocumentStore
	cache    *memory.SearchCacheStore
	features *memory.FeatureStore
	services *memory.ServiceStore
	svc      *SearchService
}

func newSearchFixture(t *testing.T, embedder driven.Embedder) *searchFixture {
	t.Helper()

	docs := memory.NewDocumentStore()
	cache := memory.NewSearchCacheStore()
	docs.AttachSearchCache(cache)
	features := memory.NewFeatureStore()
	services := memory.NewServiceStore()
	index := memory.NewSearchIndex(docs, features)

	svc := NewSearchService(index, cache, docs, features, services, services, embedder, nil, nil)
	return &searchFixture{docs: docs, cache: cache, features: features, services: services, svc: svc}
}

// seedDocument applies a single-document sync batch with one embedded chunk.
func (f *searchFixture) seedDocument(t *testing.T, id, title, content, team string, embedding []float32) {
	t.Helper()

	doc := domain.Document{
		ID:          id,
		SourceID:    "src-" + id,
		Provider:    "confluence",
		Scope:       "ENG",
		Title:       title,
		URL:         "https://wiki.example.com/" + id,
		Content:     content,
		ContentHash: domain.HashContent(content),
		Team:        team,
		UpdatedAt:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		FetchedAt:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	var chunks []domain.Chunk
	if embedding != nil {
		chunks = []domain.Chunk{{ID: id + "-0", DocumentID: id, Ordinal: 0, Text: content, Embedding: embedding}}
	}

	require.NoError(t, f.docs.ApplySyncBatch(context.Background(), driven.SyncBatch{
		Scope:    "ENG",
		Upserts:  []driven.DocumentUpsert{{Document: doc, Chunks: chunks}},
		NewState: domain.SyncState{Scope: "ENG"},
	}))
}

// --- Tests ---

func TestSearchService_Search_EmptyQuery(t *testing.T) {
	f := newSearchFixture(t, nil)

	results, err := f.svc.Search(context.Background(), "   ", domain.SearchOptions{})

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, f.svc.Recomputes())
}

func TestSearchService_Search_KeywordOnly(t *testing.T) {
	f := newSearchFixture(t, nil)
	f.seedDocument(t, "doc-1", "Checkout API", "the checkout flow calls the payment service", "payments", nil)
	f.seedDocument(t, "doc-2", "Onboarding", "new hire onboarding guide", "people", nil)

	results, err := f.svc.Search(context.Background(), "checkout", domain.SearchOptions{})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-1", results[0].ID)
	assert.Equal(t, domain.ResultKindDocument, results[0].Kind)
	assert.Positive(t, results[0].KeywordScore)
	assert.Zero(t, results[0].SemanticScore)
}

func TestSearchService_Search_HybridRanksBothSignalsFirst(t *testing.T) {
	embedder := &searchMockEmbedder{vectors: map[string][]float32{
		"checkout": {1, 0, 0},
	}}
	f := newSearchFixture(t, embedder)

	// doc-1 matches the keyword and has a closely aligned vector.
	f.seedDocument(t, "doc-1", "Checkout API", "checkout flow details", "payments", []float32{0.9, 0.1, 0})
	// doc-2 matches the keyword but its vector points elsewhere.
	f.seedDocument(t, "doc-2", "Old checkout notes", "checkout leftovers", "payments", []float32{0, 1, 0})

	results, err := f.svc.Search(context.Background(), "checkout", domain.SearchOptions{})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "doc-1", results[0].ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearchService_Search_TeamFilter(t *testing.T) {
	f := newSearchFixture(t, nil)
	f.seedDocument(t, "doc-1", "Deploy guide", "how to deploy services", "platform", nil)
	f.seedDocument(t, "doc-2", "Deploy runbook", "mobile deploy checklist", "mobile", nil)

	results, err := f.svc.Search(context.Background(), "deploy", domain.SearchOptions{
		Filters: domain.SearchFilters{Team: "mobile"},
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-2", results[0].ID)
}

func TestSearchService_Search_CacheHitSkipsRecompute(t *testing.T) {
	f := newSearchFixture(t, nil)
	f.seedDocument(t, "doc-1", "Checkout API", "checkout flow", "payments", nil)

	ctx := context.Background()
	first, err := f.svc.Search(ctx, "checkout", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.svc.Recomputes())

	// Equivalent queries normalize to the same cache key.
	second, err := f.svc.Search(ctx, "  Checkout ", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.svc.Recomputes())
	assert.Equal(t, first, second)
}

func TestSearchService_Search_SyncInvalidatesCache(t *testing.T) {
	f := newSearchFixture(t, nil)
	f.seedDocument(t, "doc-1", "Checkout API", "checkout flow", "payments", nil)

	ctx := context.Background()
	_, err := f.svc.Search(ctx, "checkout", domain.SearchOptions{})
	require.NoError(t, err)
	require.Equal(t, int64(1), f.svc.Recomputes())

	// A committed sync batch invalidates every cached result set.
	f.seedDocument(t, "doc-2", "Checkout v2", "the new checkout flow", "payments", nil)

	results, err := f.svc.Search(ctx, "checkout", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.svc.Recomputes())
	assert.Len(t, results, 2)
}

func TestSearchService_Search_ExpiredCacheEntryRecomputes(t *testing.T) {
	f := newSearchFixture(t, nil)
	f.seedDocument(t, "doc-1", "Checkout API", "checkout flow", "payments", nil)

	ctx := context.Background()
	_, err := f.svc.Search(ctx, "checkout", domain.SearchOptions{})
	require.NoError(t, err)

	// Jump past the TTL.
	f.svc.SetClock(func() time.Time { return time.Now().Add(DefaultCacheTTL + time.Minute) })

	_, err = f.svc.Search(ctx, "checkout", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.svc.Recomputes())
}

func TestSearchService_Search_DegradesWhenEmbedderFails(t *testing.T) {
	embedder := &searchMockEmbedder{err: errors.New("embedding backend down")}
	f := newSearchFixture(t, embedder)
	f.seedDocument(t, "doc-1", "Checkout API", "checkout flow", "payments", []float32{1, 0, 0})

	results, err := f.svc.Search(context.Background(), "checkout", domain.SearchOptions{})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Positive(t, results[0].KeywordScore)
	assert.Zero(t, results[0].SemanticScore)
}

func TestSearchService_Search_FindsFeatures(t *testing.T) {
	f := newSearchFixture(t, nil)

	ctx := context.Background()
	svc, err := f.services.CreateService(ctx, "resto-service", "/srv/resto", "")
	require.NoError(t, err)

	feature := domain.Feature{
		ID:        "feat-1",
		ServiceID: svc.ID,
		Name:      "home restaurant list",
		Type:      domain.FeatureTypeUI,
		UpdatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	_, err = f.features.CreateFeature(ctx, &feature)
	require.NoError(t, err)
	require.NoError(t, f.features.AddSearchEntry(ctx, &domain.SearchIndexEntry{
		FeatureID: "feat-1", ContentType: "alias", Content: "food home list resto",
	}))

	results, err := f.svc.Search(ctx, "food home list resto", domain.SearchOptions{})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.ResultKindFeature, results[0].Kind)
	assert.Equal(t, "home restaurant list", results[0].Title)
	assert.Contains(t, results[0].RelatedServices, "resto-service")
}

func TestSearchService_Search_RanksPartialMatches(t *testing.T) {
	f := newSearchFixture(t, nil)

	ctx := context.Background()
	svc, err := f.services.CreateService(ctx, "resto-service", "/srv/resto", "")
	require.NoError(t, err)

	feature := domain.Feature{
		ID:        "feat-1",
		ServiceID: svc.ID,
		Name:      "home screen",
		Type:      domain.FeatureTypeUI,
		UpdatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	_, err = f.features.CreateFeature(ctx, &feature)
	require.NoError(t, err)
	require.NoError(t, f.features.AddSearchEntry(ctx, &domain.SearchIndexEntry{
		FeatureID: "feat-1", ContentType: "alias", Content: "food home",
	}))

	f.seedDocument(t, "doc-1", "Restaurants",
		"the resto list shows nearby restaurants", "resto", nil)

	// No candidate contains all four terms; each matching a subset must
	// still rank.
	results, err := f.svc.Search(ctx, "food home list resto", domain.SearchOptions{})

	require.NoError(t, err)
	require.Len(t, results, 2)

	kinds := map[domain.ResultKind]string{
		results[0].Kind: results[0].ID,
		results[1].Kind: results[1].ID,
	}
	assert.Equal(t, "feat-1", kinds[domain.ResultKindFeature])
	assert.Equal(t, "doc-1", kinds[domain.ResultKindDocument])
}

func TestSearchService_Search_EnrichesDocumentWithMappings(t *testing.T) {
	f := newSearchFixture(t, nil)
	f.seedDocument(t, "doc-1", "Checkout API", "checkout flow", "payments", nil)

	ctx := context.Background()
	svc, err := f.services.CreateService(ctx, "checkout-service", "/srv/checkout", "")
	require.NoError(t, err)
	_, err = f.services.AddMapping(ctx, &domain.DocumentMapping{
		ServiceID: svc.ID,
		Provider:  "confluence",
		Location:  "src-doc-1",
	})
	require.NoError(t, err)

	results, err := f.svc.Search(ctx, "checkout", domain.SearchOptions{})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].RelatedServices, "checkout-service")
}

func TestSearchService_Search_LimitApplied(t *testing.T) {
	f := newSearchFixture(t, nil)
	f.seedDocument(t, "doc-1", "Deploy one", "deploy alpha", "platform", nil)
	f.seedDocument(t, "doc-2", "Deploy two", "deploy beta", "platform", nil)
	f.seedDocument(t, "doc-3", "Deploy three", "deploy gamma", "platform", nil)

	results, err := f.svc.Search(context.Background(), "deploy", domain.SearchOptions{Limit: 2})

	require.NoError(t, err)
	assert.Len(t, results, 2)
}
