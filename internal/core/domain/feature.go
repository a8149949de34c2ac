package domain

import "time"

// FeatureType categorises a feature.
type FeatureType string

// Known feature types.
const (
	FeatureTypeAPI           FeatureType = "api"
	FeatureTypeUI            FeatureType = "ui"
	FeatureTypeBusinessLogic FeatureType = "business_logic"
	FeatureTypeConfig        FeatureType = "config"
	FeatureTypeDatabase      FeatureType = "database"
	FeatureTypeSecurity      FeatureType = "security"
	FeatureTypePerformance   FeatureType = "performance"
	FeatureTypeTesting       FeatureType = "testing"
	FeatureTypeDeployment    FeatureType = "deployment"
	FeatureTypeOther         FeatureType = "other"
)

// ParseFeatureType maps a stored string to a FeatureType.
// Unknown values map to FeatureTypeOther.
func ParseFeatureType(s string) FeatureType {
	switch FeatureType(s) {
	case FeatureTypeAPI, FeatureTypeUI, FeatureTypeBusinessLogic,
		FeatureTypeConfig, FeatureTypeDatabase, FeatureTypeSecurity,
		FeatureTypePerformance, FeatureTypeTesting, FeatureTypeDeployment:
		return FeatureType(s)
	default:
		return FeatureTypeOther
	}
}

// Feature is a named logical unit (screen, API, flow) linked to a service
// and, through the graph, to other features and documents.
// Features are unique per (service, name).
type Feature struct {
	// ID is an opaque handle.
	ID string

	// ServiceID is the owning service.
	ServiceID int64

	// Name is the feature name, unique within the service.
	Name string

	// Description is a free-form summary.
	Description string

	// Type categorises the feature.
	Type FeatureType

	// Tags are labels for filtering.
	Tags []string

	// Metadata holds arbitrary key-value pairs.
	Metadata map[string]any

	// RelevanceScore ranks the feature among search results.
	// It is recomputed lazily (on read) from link count and recency.
	RelevanceScore float64

	// Embedding is the vector representation of name + description.
	Embedding []float32

	// CreatedAt is when the feature was created.
	CreatedAt time.Time

	// UpdatedAt is when the feature was last modified.
	UpdatedAt time.Time
}

// RelationType categorises an edge between two features.
type RelationType string

// Known relation types.
const (
	// RelationDependsOn marks a dependency edge. Transitive: the graph
	// must stay acyclic for this type.
	RelationDependsOn RelationType = "depends_on"

	// RelationPartOf marks containment. Also kept acyclic.
	RelationPartOf RelationType = "part_of"

	// RelationRelatesTo marks a loose association. Cycles allowed.
	RelationRelatesTo RelationType = "relates_to"

	// RelationSimilarTo marks semantic similarity. Cycles allowed.
	RelationSimilarTo RelationType = "similar_to"
)

// IsTransitive reports whether cycles must be rejected for this type.
func (t RelationType) IsTransitive() bool {
	return t == RelationDependsOn || t == RelationPartOf
}

// IsValid reports whether the relation type is recognised.
func (t RelationType) IsValid() bool {
	switch t {
	case RelationDependsOn, RelationPartOf, RelationRelatesTo, RelationSimilarTo:
		return true
	default:
		return false
	}
}

// FeatureRelation is a directed edge between two features.
type FeatureRelation struct {
	// ID is the database identifier.
	ID int64

	// ParentID is the edge source.
	ParentID string

	// ChildID is the edge target. Never equal to ParentID.
	ChildID string

	// Type categorises the edge.
	Type RelationType

	// Strength weights the edge in 0..1.
	Strength float64

	// CreatedAt is when the edge was added.
	CreatedAt time.Time
}

// FeatureDetail is a feature together with its graph neighbourhood.
type FeatureDetail struct {
	// Feature is the feature itself.
	Feature Feature

	// ServiceName is the owning service's name.
	ServiceName string

	// Parents are features with an edge into this one.
	Parents []Feature

	// Children are features this one has an edge to.
	Children []Feature

	// Documents are mappings linked to this feature.
	Documents []DocumentMapping
}

// SearchIndexEntry is denormalised searchable text bound to a feature.
type SearchIndexEntry struct {
	// ID is the database identifier.
	ID int64

	// FeatureID is the owning feature.
	FeatureID string

	// ContentType describes what the content is (feature_name, alias,
	// documentation, api_reference...).
	ContentType string

	// Content is the searchable text.
	Content string

	// Embedding is the vector representation of Content.
	Embedding []float32
}
