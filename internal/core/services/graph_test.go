package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold-cli/internal/adapters/driven/storage/memory"
	"github.com/docfold/docfold-cli/internal/core/domain"
)

// graphFixture bundles the stores behind a graph service.
type graphFixture struct {
	features *memory.FeatureStore
	services *memory.ServiceStore
	graph    *GraphService
}

func newGraphFixture(t *testing.T) *graphFixture {
	t.Helper()

	features := memory.NewFeatureStore()
	services := memory.NewServiceStore()
	graph := NewGraphService(features, services, services, nil)

	_, err := services.CreateService(context.Background(), "resto-service", "/srv/resto", "restaurant app backend")
	require.NoError(t, err)

	return &graphFixture{features: features, services: services, graph: graph}
}

func (f *graphFixture) addFeature(t *testing.T, name string) *domain.Feature {
	t.Helper()
	feature, err := f.graph.AddFeature(context.Background(), "resto-service", domain.Feature{
		Name: name,
		Type: domain.FeatureTypeUI,
	}, nil)
	require.NoError(t, err)
	return feature
}

func TestGraphService_AddFeature(t *testing.T) {
	f := newGraphFixture(t)

	feature, err := f.graph.AddFeature(context.Background(), "resto-service", domain.Feature{
		Name:        "home restaurant list",
		Description: "restaurant cards on the home screen",
		Type:        domain.FeatureTypeUI,
	}, []string{"food home list resto"})

	require.NoError(t, err)
	assert.NotEmpty(t, feature.ID)
	assert.Equal(t, domain.FeatureTypeUI, feature.Type)

	// Name, description, and alias are all indexed for search.
	entries, err := f.features.SearchEntries(context.Background(), feature.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	types := make(map[string]string)
	for _, e := range entries {
		types[e.ContentType] = e.Content
	}
	assert.Equal(t, "home restaurant list", types["feature_name"])
	assert.Equal(t, "food home list resto", types["alias"])
}

func TestGraphService_AddFeature_UnknownService(t *testing.T) {
	f := newGraphFixture(t)

	_, err := f.graph.AddFeature(context.Background(), "ghost-service", domain.Feature{Name: "x"}, nil)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGraphService_AddFeature_DuplicateName(t *testing.T) {
	f := newGraphFixture(t)
	f.addFeature(t, "checkout")

	_, err := f.graph.AddFeature(context.Background(), "resto-service", domain.Feature{Name: "checkout"}, nil)

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestGraphService_AddFeature_UnknownTypeMapsToOther(t *testing.T) {
	f := newGraphFixture(t)

	feature, err := f.graph.AddFeature(context.Background(), "resto-service", domain.Feature{
		Name: "mystery",
		Type: domain.FeatureType("holographic"),
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, domain.FeatureTypeOther, feature.Type)
}

func TestGraphService_RelateFeatures_SelfRelation(t *testing.T) {
	f := newGraphFixture(t)
	a := f.addFeature(t, "a")

	_, err := f.graph.RelateFeatures(context.Background(), a.ID, a.ID, domain.RelationDependsOn, 1)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGraphService_RelateFeatures_RejectsCycle(t *testing.T) {
	f := newGraphFixture(t)
	a := f.addFeature(t, "a")
	b := f.addFeature(t, "b")
	c := f.addFeature(t, "c")

	ctx := context.Background()
	_, err := f.graph.RelateFeatures(ctx, a.ID, b.ID, domain.RelationDependsOn, 1)
	require.NoError(t, err)
	_, err = f.graph.RelateFeatures(ctx, b.ID, c.ID, domain.RelationDependsOn, 1)
	require.NoError(t, err)

	// c -> a closes a cycle through a -> b -> c.
	_, err = f.graph.RelateFeatures(ctx, c.ID, a.ID, domain.RelationDependsOn, 1)
	assert.ErrorIs(t, err, domain.ErrCycle)

	// Direct back edge too.
	_, err = f.graph.RelateFeatures(ctx, b.ID, a.ID, domain.RelationPartOf, 1)
	require.NoError(t, err, "cycle check is per relation type")
	_, err = f.graph.RelateFeatures(ctx, a.ID, b.ID, domain.RelationPartOf, 1)
	assert.ErrorIs(t, err, domain.ErrCycle)
}

func TestGraphService_RelateFeatures_NonTransitiveAllowsCycle(t *testing.T) {
	f := newGraphFixture(t)
	a := f.addFeature(t, "a")
	b := f.addFeature(t, "b")

	ctx := context.Background()
	_, err := f.graph.RelateFeatures(ctx, a.ID, b.ID, domain.RelationRelatesTo, 0.5)
	require.NoError(t, err)
	_, err = f.graph.RelateFeatures(ctx, b.ID, a.ID, domain.RelationRelatesTo, 0.5)
	assert.NoError(t, err)
}

func TestGraphService_RelateFeatures_Validation(t *testing.T) {
	f := newGraphFixture(t)
	a := f.addFeature(t, "a")
	b := f.addFeature(t, "b")

	ctx := context.Background()

	_, err := f.graph.RelateFeatures(ctx, a.ID, b.ID, domain.RelationType("owns"), 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.graph.RelateFeatures(ctx, a.ID, b.ID, domain.RelationDependsOn, 1.5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.graph.RelateFeatures(ctx, a.ID, "missing", domain.RelationDependsOn, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGraphService_MapFeatureDocument(t *testing.T) {
	f := newGraphFixture(t)
	feature := f.addFeature(t, "home restaurant list")

	mapping, err := f.graph.MapFeatureDocument(context.Background(), feature.ID, "SPACE/home-list")

	require.NoError(t, err)
	assert.Equal(t, feature.ID, mapping.FeatureID)
	assert.Equal(t, "SPACE/home-list", mapping.Location)

	linked, err := f.services.GetMappingsForFeature(context.Background(), feature.ID)
	require.NoError(t, err)
	assert.Len(t, linked, 1)
}

func TestGraphService_GetFeature_DetailAndRelevance(t *testing.T) {
	f := newGraphFixture(t)
	parent := f.addFeature(t, "ordering")
	child := f.addFeature(t, "checkout")
	loner := f.addFeature(t, "settings")

	ctx := context.Background()
	_, err := f.graph.RelateFeatures(ctx, parent.ID, child.ID, domain.RelationPartOf, 1)
	require.NoError(t, err)
	_, err = f.graph.MapFeatureDocument(ctx, child.ID, "SPACE/checkout")
	require.NoError(t, err)

	detail, err := f.graph.GetFeature(ctx, child.ID)
	require.NoError(t, err)

	assert.Equal(t, "resto-service", detail.ServiceName)
	require.Len(t, detail.Parents, 1)
	assert.Equal(t, "ordering", detail.Parents[0].Name)
	assert.Empty(t, detail.Children)
	require.Len(t, detail.Documents, 1)

	// More links means a higher recomputed relevance.
	lonerDetail, err := f.graph.GetFeature(ctx, loner.ID)
	require.NoError(t, err)
	assert.Greater(t, detail.Feature.RelevanceScore, lonerDetail.Feature.RelevanceScore)

	// The recomputed score is persisted.
	stored, err := f.features.GetFeature(ctx, child.ID)
	require.NoError(t, err)
	assert.InDelta(t, detail.Feature.RelevanceScore, stored.RelevanceScore, 1e-9)
}

func TestGraphService_RelevanceDecaysWithAge(t *testing.T) {
	f := newGraphFixture(t)
	feature := f.addFeature(t, "checkout")

	ctx := context.Background()
	_, err := f.graph.MapFeatureDocument(ctx, feature.ID, "SPACE/checkout")
	require.NoError(t, err)

	fresh, err := f.graph.GetFeature(ctx, feature.ID)
	require.NoError(t, err)

	f.graph.SetClock(func() time.Time { return time.Now().Add(365 * 24 * time.Hour) })

	stale, err := f.graph.GetFeature(ctx, feature.ID)
	require.NoError(t, err)

	assert.Less(t, stale.Feature.RelevanceScore, fresh.Feature.RelevanceScore)
	assert.GreaterOrEqual(t, stale.Feature.RelevanceScore, relevanceBase)
}

func TestGraphService_ListFeatures_TeamFilter(t *testing.T) {
	f := newGraphFixture(t)

	ctx := context.Background()
	_, err := f.graph.AddFeature(ctx, "resto-service", domain.Feature{
		Name: "checkout", Tags: []string{"payments"},
	}, nil)
	require.NoError(t, err)
	_, err = f.graph.AddFeature(ctx, "resto-service", domain.Feature{
		Name: "onboarding", Tags: []string{"growth"},
	}, nil)
	require.NoError(t, err)

	all, err := f.graph.ListFeatures(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	payments, err := f.graph.ListFeatures(ctx, "payments")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "checkout", payments[0].Name)
}
