package driving

import (
	"context"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

// Syncer reconciles the local cache against a document source.
type Syncer interface {
	// Sync brings the cache into agreement with the remote scope.
	// Concurrent syncs of the same scope are serialized; different
	// scopes run in parallel.
	Sync(ctx context.Context, scope string, mode domain.SyncMode) (*domain.SyncReport, error)
}

// Searcher runs hybrid ranked retrieval over the cache and graph.
type Searcher interface {
	// Search returns ranked results for the query, served from the
	// result cache when a fresh entry exists.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.RankedResult, error)
}

// Documents reads the cached document store.
type Documents interface {
	// Get retrieves a document by id or URL.
	Get(ctx context.Context, ref string) (*domain.Document, error)

	// List returns document summaries matching the filters.
	List(ctx context.Context, filters domain.SearchFilters) ([]domain.Document, error)
}

// Graph manages features and their relations.
type Graph interface {
	// AddFeature creates a feature for a service, indexing its name and
	// aliases for search.
	AddFeature(ctx context.Context, serviceName string, f domain.Feature, aliases []string) (*domain.Feature, error)

	// RelateFeatures adds a directed edge. Self-relations are rejected
	// with domain.ErrInvalidInput; edges that would close a cycle in a
	// transitive relation type are rejected with domain.ErrCycle.
	RelateFeatures(ctx context.Context, parentID, childID string, relType domain.RelationType, strength float64) (*domain.FeatureRelation, error)

	// MapFeatureDocument links a documentation location to a feature.
	MapFeatureDocument(ctx context.Context, featureID, documentRef string) (*domain.DocumentMapping, error)

	// GetFeature returns a feature with parents, children, and linked
	// documents. The relevance score is recomputed on read.
	GetFeature(ctx context.Context, id string) (*domain.FeatureDetail, error)

	// ListFeatures returns features, optionally filtered by team.
	ListFeatures(ctx context.Context, team string) ([]domain.Feature, error)
}

// Mappings manages services and their documentation mappings.
type Mappings interface {
	// AddService registers a service.
	AddService(ctx context.Context, name, path, description string) (*domain.Service, error)

	// RemoveService deletes a service, cascading to mappings and features.
	RemoveService(ctx context.Context, name string) error

	// ListServices returns all registered services.
	ListServices(ctx context.Context) ([]domain.Service, error)

	// AddMapping links a service to a documentation location.
	AddMapping(ctx context.Context, serviceName, provider, location string, opts domain.MappingOptions) (*domain.DocumentMapping, error)

	// GetMappings returns a service's mappings, primary first.
	GetMappings(ctx context.Context, serviceName string) ([]domain.DocumentMapping, error)

	// RemoveMapping removes one mapping by its uniqueness triple.
	RemoveMapping(ctx context.Context, serviceName, provider, location string) error

	// SetPrimary marks one mapping as the service's main page.
	SetPrimary(ctx context.Context, serviceName string, mappingID int64) error
}

// Generation is the ledger boundary for the external generation pipeline:
// diff memoization plus the append-only audit trail.
type Generation interface {
	// ExtractDiff returns the structured diff for a change, serving a
	// cached copy when one is inside its TTL window. A failed
	// extraction with an expired cached copy on hand returns that
	// copy together with domain.ErrStale.
	ExtractDiff(ctx context.Context, req domain.ExtractParams) (*domain.Diff, bool, error)

	// RecordGeneration appends an audit record.
	RecordGeneration(ctx context.Context, rec domain.GenerationRecord) (int64, error)

	// LatestSuccess exposes the newest successful record for the
	// (service, provider, source identifier) triple so callers can
	// detect no-op regenerations.
	LatestSuccess(ctx context.Context, serviceName, provider, sourceIdentifier string) (*domain.GenerationRecord, error)

	// History lists recent generation records, for all services when
	// serviceName is empty.
	History(ctx context.Context, serviceName string, limit int) ([]domain.GenerationRecord, error)
}
