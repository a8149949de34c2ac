package driven

import (
	"context"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

// FeatureStore persists features, their relations, and their search
// index entries.
type FeatureStore interface {
	// CreateFeature stores a new feature. Returns domain.ErrConflict
	// when (service, name) already exists.
	CreateFeature(ctx context.Context, f *domain.Feature) (*domain.Feature, error)

	// GetFeature retrieves a feature by id.
	// Returns domain.ErrNotFound if absent.
	GetFeature(ctx context.Context, id string) (*domain.Feature, error)

	// ListFeatures returns features, optionally filtered by service id
	// (0 = all) and team tag, ordered by name.
	ListFeatures(ctx context.Context, serviceID int64, team string) ([]domain.Feature, error)

	// UpdateRelevance persists a recomputed relevance score.
	UpdateRelevance(ctx context.Context, featureID string, score float64) error

	// AddRelation stores a directed edge. Returns domain.ErrConflict for
	// a duplicate (parent, child, type) edge.
	AddRelation(ctx context.Context, r *domain.FeatureRelation) (*domain.FeatureRelation, error)

	// Parents returns features with an edge into the given feature.
	Parents(ctx context.Context, featureID string) ([]domain.Feature, error)

	// Children returns features the given feature has an edge to.
	Children(ctx context.Context, featureID string) ([]domain.Feature, error)

	// ChildIDs returns edge targets of the feature restricted to one
	// relation type. Used for reachability checks.
	ChildIDs(ctx context.Context, featureID string, relType domain.RelationType) ([]string, error)

	// RelationCounts returns, per feature id, the number of edges
	// touching it. Input ids absent from the result have zero edges.
	RelationCounts(ctx context.Context, featureIDs []string) (map[string]int, error)

	// AddSearchEntry stores denormalised searchable text for a feature.
	AddSearchEntry(ctx context.Context, e *domain.SearchIndexEntry) error

	// SearchEntries returns the index entries for a feature.
	SearchEntries(ctx context.Context, featureID string) ([]domain.SearchIndexEntry, error)
}
