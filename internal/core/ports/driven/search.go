package driven

import (
	"context"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

// KeywordHit is a full-text match with its raw relevance rank.
type KeywordHit struct {
	// Kind says whether the hit is a document or feature.
	Kind domain.ResultKind

	// ID is the document or feature id.
	ID string

	// Rank is the engine's raw relevance value. Lower is better for
	// bm25-style engines; the search service normalises it.
	Rank float64

	// Snippet is an excerpt around the match, when available.
	Snippet string
}

// EmbeddingCandidate is a stored vector eligible for semantic scoring.
type EmbeddingCandidate struct {
	// Kind says whether the vector belongs to a document chunk or a
	// feature index entry.
	Kind domain.ResultKind

	// ID is the owning document or feature id.
	ID string

	// Embedding is the stored vector.
	Embedding []float32
}

// SearchIndex provides the two raw retrieval signals over the cache.
// Backed by SQLite FTS5 for keywords and stored vectors for semantics.
type SearchIndex interface {
	// KeywordSearch runs full-text retrieval over document content and
	// feature search-index entries.
	KeywordSearch(ctx context.Context, query string, filters domain.SearchFilters, limit int) ([]KeywordHit, error)

	// EmbeddingCandidates returns stored vectors matching the filters.
	// The search service computes cosine similarity in process.
	EmbeddingCandidates(ctx context.Context, filters domain.SearchFilters) ([]EmbeddingCandidate, error)
}

// SearchCacheStore memoizes ranked results keyed by query hash.
type SearchCacheStore interface {
	// GetCachedSearch retrieves a cache entry.
	// Returns domain.ErrNotFound on miss.
	GetCachedSearch(ctx context.Context, queryHash string) (*domain.CachedSearch, error)

	// PutCachedSearch stores or replaces an entry.
	PutCachedSearch(ctx context.Context, entry *domain.CachedSearch) error

	// InvalidateSearchCache drops all entries. Called on sync completion.
	InvalidateSearchCache(ctx context.Context) error

	// DeleteExpiredSearchCache drops entries past their TTL.
	DeleteExpiredSearchCache(ctx context.Context) (int64, error)
}
