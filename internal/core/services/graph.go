package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
	"github.com/docfold/docfold-cli/internal/core/ports/driving"
	"github.com/docfold/docfold-cli/internal/logger"
)

var _ driving.Graph = (*GraphService)(nil)

// Relevance scoring knobs. A feature starts at the base, gains a fixed
// amount per graph edge and per mapped document, capped at 1, and decays
// with the time since its last update.
const (
	relevanceBase     = 0.1
	relevancePerLink  = 0.15
	relevanceHalfLife = 90 * 24 * time.Hour
)

// GraphService manages the feature graph: features, directed relations
// between them, and links from features to documentation locations.
type GraphService struct {
	features driven.FeatureStore
	services driven.ServiceStore
	mappings driven.MappingStore
	embedder driven.Embedder // optional
	now      func() time.Time
}

// NewGraphService creates a graph service. The embedder is optional;
// without it features are created without vectors and participate in
// keyword search only.
func NewGraphService(
	features driven.FeatureStore,
	services driven.ServiceStore,
	mappings driven.MappingStore,
	embedder driven.Embedder,
) *GraphService {
	return &GraphService{
		features: features,
		services: services,
		mappings: mappings,
		embedder: embedder,
		now:      time.Now,
	}
}

// SetClock overrides the service's clock. Useful for tests.
func (g *GraphService) SetClock(now func() time.Time) {
	g.now = now
}

// AddFeature creates a feature under the named service and indexes its
// name, description, and aliases for search.
func (g *GraphService) AddFeature(ctx context.Context, serviceName string, f domain.Feature, aliases []string) (*domain.Feature, error) {
	serviceName = strings.TrimSpace(serviceName)
	f.Name = strings.TrimSpace(f.Name)
	if serviceName == "" || f.Name == "" {
		return nil, fmt.Errorf("%w: service and feature name are required", domain.ErrInvalidInput)
	}

	svc, err := g.services.GetService(ctx, serviceName)
	if err != nil {
		return nil, fmt.Errorf("service %q: %w", serviceName, err)
	}

	now := g.now()
	f.ID = uuid.NewString()
	f.ServiceID = svc.ID
	f.Type = domain.ParseFeatureType(string(f.Type))
	f.RelevanceScore = relevanceBase
	f.CreatedAt = now
	f.UpdatedAt = now

	if g.embedder != nil {
		text := f.Name
		if f.Description != "" {
			text += "\n" + f.Description
		}
		vec, err := g.embedFeatureText(ctx, text)
		if err != nil {
			// Feature creation survives an embedder outage.
			logger.Warn("Feature %q created without embedding: %v", f.Name, err)
		} else {
			f.Embedding = vec
		}
	}

	created, err := g.features.CreateFeature(ctx, &f)
	if err != nil {
		return nil, err
	}

	if err := g.indexFeature(ctx, created, aliases); err != nil {
		logger.Warn("Search indexing incomplete for %q: %v", created.Name, err)
	}

	logger.Info("Added feature %q to service %q", created.Name, serviceName)
	return created, nil
}

// indexFeature writes the denormalised search entries for a feature.
func (g *GraphService) indexFeature(ctx context.Context, f *domain.Feature, aliases []string) error {
	entries := []domain.SearchIndexEntry{
		{FeatureID: f.ID, ContentType: "feature_name", Content: f.Name, Embedding: f.Embedding},
	}
	if f.Description != "" {
		entries = append(entries, domain.SearchIndexEntry{
			FeatureID: f.ID, ContentType: "documentation", Content: f.Description,
		})
	}
	for _, alias := range aliases {
		alias = strings.TrimSpace(alias)
		if alias == "" {
			continue
		}
		entry := domain.SearchIndexEntry{FeatureID: f.ID, ContentType: "alias", Content: alias}
		if g.embedder != nil {
			if vec, err := g.embedFeatureText(ctx, alias); err == nil {
				entry.Embedding = vec
			}
		}
		entries = append(entries, entry)
	}

	for i := range entries {
		if err := g.features.AddSearchEntry(ctx, &entries[i]); err != nil {
			return err
		}
	}
	return nil
}

func (g *GraphService) embedFeatureText(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := withRetries(ctx, embedAttempts, embedBackoff, func(ctx context.Context) error {
		embedCtx, cancel := context.WithTimeout(ctx, embedTimeout)
		defer cancel()

		var embedErr error
		vec, embedErr = g.embedder.Embed(embedCtx, text)
		return embedErr
	})
	return vec, err
}

// RelateFeatures adds a directed edge from parent to child. Edges that
// would close a cycle in a transitive relation type are rejected.
func (g *GraphService) RelateFeatures(ctx context.Context, parentID, childID string, relType domain.RelationType, strength float64) (*domain.FeatureRelation, error) {
	if parentID == childID {
		return nil, fmt.Errorf("%w: a feature cannot relate to itself", domain.ErrInvalidInput)
	}
	if !relType.IsValid() {
		return nil, fmt.Errorf("%w: unknown relation type %q", domain.ErrInvalidInput, relType)
	}
	if strength < 0 || strength > 1 {
		return nil, fmt.Errorf("%w: strength must be in 0..1, got %v", domain.ErrInvalidInput, strength)
	}

	// Both endpoints must exist.
	if _, err := g.features.GetFeature(ctx, parentID); err != nil {
		return nil, fmt.Errorf("parent %s: %w", parentID, err)
	}
	if _, err := g.features.GetFeature(ctx, childID); err != nil {
		return nil, fmt.Errorf("child %s: %w", childID, err)
	}

	if relType.IsTransitive() {
		reachable, err := g.reachable(ctx, childID, parentID, relType)
		if err != nil {
			return nil, fmt.Errorf("cycle check: %w", err)
		}
		if reachable {
			return nil, fmt.Errorf("%w: %s edge %s -> %s", domain.ErrCycle, relType, parentID, childID)
		}
	}

	rel := &domain.FeatureRelation{
		ParentID:  parentID,
		ChildID:   childID,
		Type:      relType,
		Strength:  strength,
		CreatedAt: g.now(),
	}
	return g.features.AddRelation(ctx, rel)
}

// reachable reports whether target can be reached from start by
// following edges of the given type. Breadth-first over ChildIDs.
func (g *GraphService) reachable(ctx context.Context, start, target string, relType domain.RelationType) (bool, error) {
	visited := map[string]bool{start: true}
	queue := []string{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		children, err := g.features.ChildIDs(ctx, current, relType)
		if err != nil {
			return false, err
		}
		for _, id := range children {
			if id == target {
				return true, nil
			}
			if !visited[id] {
				visited[id] = true
				queue = append(queue, id)
			}
		}
	}
	return false, nil
}

// MapFeatureDocument links a documentation location to a feature under
// the feature's owning service.
func (g *GraphService) MapFeatureDocument(ctx context.Context, featureID, documentRef string) (*domain.DocumentMapping, error) {
	documentRef = strings.TrimSpace(documentRef)
	if documentRef == "" {
		return nil, fmt.Errorf("%w: document reference is required", domain.ErrInvalidInput)
	}

	feature, err := g.features.GetFeature(ctx, featureID)
	if err != nil {
		return nil, fmt.Errorf("feature %s: %w", featureID, err)
	}

	mapping, err := g.mappings.LinkMappingFeature(ctx, feature.ServiceID, documentRef, feature.ID)
	if err != nil {
		return nil, err
	}

	logger.Info("Linked %q to feature %q", documentRef, feature.Name)
	return mapping, nil
}

// GetFeature returns the feature with its graph neighbourhood. The
// relevance score is recomputed from the current link count and age
// before being returned.
func (g *GraphService) GetFeature(ctx context.Context, id string) (*domain.FeatureDetail, error) {
	feature, err := g.features.GetFeature(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &domain.FeatureDetail{Feature: *feature}

	if svc, err := g.services.GetServiceByID(ctx, feature.ServiceID); err == nil {
		detail.ServiceName = svc.Name
	}

	detail.Parents, err = g.features.Parents(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("parents: %w", err)
	}
	detail.Children, err = g.features.Children(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("children: %w", err)
	}
	detail.Documents, err = g.mappings.GetMappingsForFeature(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("documents: %w", err)
	}

	links := len(detail.Parents) + len(detail.Children) + len(detail.Documents)
	score := g.relevanceFor(links, feature.UpdatedAt)
	if score != feature.RelevanceScore {
		if err := g.features.UpdateRelevance(ctx, id, score); err != nil {
			logger.Warn("Relevance update failed for %s: %v", id, err)
		}
	}
	detail.Feature.RelevanceScore = score

	return detail, nil
}

// relevanceFor scores a feature from its link count and how recently it
// was touched. Links raise the score linearly up to the cap; age halves
// the earned portion every relevanceHalfLife.
func (g *GraphService) relevanceFor(links int, updatedAt time.Time) float64 {
	earned := relevancePerLink * float64(links)
	if earned > 1-relevanceBase {
		earned = 1 - relevanceBase
	}

	age := g.now().Sub(updatedAt)
	if age < 0 {
		age = 0
	}
	decay := math.Pow(0.5, age.Hours()/relevanceHalfLife.Hours())

	return relevanceBase + earned*decay
}

// ListFeatures returns features, optionally filtered by team tag.
func (g *GraphService) ListFeatures(ctx context.Context, team string) ([]domain.Feature, error) {
	return g.features.ListFeatures(ctx, 0, team)
}
