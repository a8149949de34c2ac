package domain

import "time"

// SearchFilters narrows a search to a subset of the cache.
type SearchFilters struct {
	// Team restricts results to documents owned by a team.
	Team string

	// Tags restricts results to documents or features carrying all tags.
	Tags []string

	// Provider restricts results to one document source.
	Provider string
}

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results (default 20).
	Limit int

	// Filters narrows the candidate set.
	Filters SearchFilters
}

// ResultKind distinguishes what a ranked result points at.
type ResultKind string

// Result kinds.
const (
	// ResultKindDocument is a cached documentation page hit.
	ResultKindDocument ResultKind = "document"

	// ResultKindFeature is a feature graph hit.
	ResultKindFeature ResultKind = "feature"
)

// RankedResult is a single hybrid search hit, enriched with its graph
// neighbourhood.
type RankedResult struct {
	// Kind says whether this hit is a document or a feature.
	Kind ResultKind

	// ID is the document or feature identifier.
	ID string

	// Title is the document title or feature name.
	Title string

	// Location is the document URL or the feature's primary mapping location.
	Location string

	// Team is the owning team, if known.
	Team string

	// Summary is a short excerpt of the matching content.
	Summary string

	// Score is the combined ranking score.
	Score float64

	// KeywordScore is the normalised full-text component.
	KeywordScore float64

	// SemanticScore is the cosine similarity component.
	SemanticScore float64

	// RelevanceScore is the entity's own relevance, used as tie-breaker.
	RelevanceScore float64

	// RelatedServices are service names linked through the graph.
	RelatedServices []string

	// RelatedFeatures are feature names linked through the graph.
	RelatedFeatures []string

	// UpdatedAt is the entity's last modification time, used as the
	// final tie-breaker.
	UpdatedAt time.Time
}

// SearchWeights balance the keyword and semantic signals in hybrid
// ranking. Exposed as configuration, never hard-coded.
type SearchWeights struct {
	// Keyword weights the full-text rank component.
	Keyword float64

	// Semantic weights the cosine similarity component.
	Semantic float64
}

// DefaultSearchWeights favour the semantic signal slightly.
func DefaultSearchWeights() SearchWeights {
	return SearchWeights{Keyword: 0.4, Semantic: 0.6}
}

// CachedSearch is a memoized ranked result set.
type CachedSearch struct {
	// QueryHash identifies the (normalized query, filters) pair.
	QueryHash string

	// Params is the canonical serialisation of query and filters,
	// kept for debugging.
	Params string

	// Results is the memoized ranked list.
	Results []RankedResult

	// ExpiresAt is the hard TTL bound.
	ExpiresAt time.Time

	// CreatedAt is when the entry was stored.
	CreatedAt time.Time
}

// Expired reports whether the entry is past its TTL at the given time.
func (c *CachedSearch) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
