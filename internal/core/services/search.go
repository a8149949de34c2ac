package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
	"github.com/docfold/docfold-cli/internal/core/ports/driving"
	"github.com/docfold/docfold-cli/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.Searcher = (*SearchService)(nil)

// DefaultSearchLimit caps results when the caller does not set one.
const DefaultSearchLimit = 20

// DefaultCacheTTL bounds how long a memoized result set may be served.
// Sync completion invalidates the cache eagerly regardless.
const DefaultCacheTTL = 15 * time.Minute

// summaryLength bounds the excerpt attached to each hit.
const summaryLength = 240

// scored accumulates the two ranking signals for one entity.
type scored struct {
	kind     domain.ResultKind
	id       string
	keyword  float64
	semantic float64
	snippet  string
}

// SearchService runs hybrid ranked retrieval over the knowledge cache
// and feature graph, memoizing ranked results in the search cache.
type SearchService struct {
	index        driven.SearchIndex
	cache        driven.SearchCacheStore
	docStore     driven.DocumentStore
	featureStore driven.FeatureStore
	serviceStore driven.ServiceStore
	mappingStore driven.MappingStore
	embedder     driven.Embedder // optional
	weights      func() domain.SearchWeights
	cacheTTL     func() time.Duration
	now          func() time.Time

	recomputes atomic.Int64
}

// NewSearchService creates a search service. Weight and TTL funcs are
// read per query so configuration reloads take effect without restart;
// nil funcs fall back to defaults. The embedder is optional: without it
// ranking degrades to the keyword signal alone.
func NewSearchService(
	index driven.SearchIndex,
	cache driven.SearchCacheStore,
	docStore driven.DocumentStore,
	featureStore driven.FeatureStore,
	serviceStore driven.ServiceStore,
	mappingStore driven.MappingStore,
	embedder driven.Embedder,
	weights func() domain.SearchWeights,
	cacheTTL func() time.Duration,
) *SearchService {
	if weights == nil {
		weights = domain.DefaultSearchWeights
	}
	if cacheTTL == nil {
		cacheTTL = func() time.Duration { return DefaultCacheTTL }
	}

	return &SearchService{
		index:        index,
		cache:        cache,
		docStore:     docStore,
		featureStore: featureStore,
		serviceStore: serviceStore,
		mappingStore: mappingStore,
		embedder:     embedder,
		weights:      weights,
		cacheTTL:     cacheTTL,
		now:          time.Now,
	}
}

// SetClock overrides the service's clock. Useful for tests.
func (s *SearchService) SetClock(now func() time.Time) {
	s.now = now
}

// Recomputes returns how many queries were computed rather than served
// from cache.
func (s *SearchService) Recomputes() int64 {
	return s.recomputes.Load()
}

// Search returns ranked results for the query. A fresh cache entry
// short-circuits computation entirely.
func (s *SearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.RankedResult, error) {
	logger.Section("Search")

	normalized := normalizeQuery(query)
	if normalized == "" {
		return []domain.RankedResult{}, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	hash, params := queryHash(normalized, opts.Filters, limit)

	if s.cache != nil {
		if entry, err := s.cache.GetCachedSearch(ctx, hash); err == nil && !entry.Expired(s.now()) {
			logger.Debug("Cache hit for %q", normalized)
			return entry.Results, nil
		}
	}

	s.recomputes.Add(1)
	logger.Debug("Computing results for %q", normalized)

	results, err := s.compute(ctx, normalized, opts.Filters, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		entry := &domain.CachedSearch{
			QueryHash: hash,
			Params:    params,
			Results:   results,
			ExpiresAt: s.now().Add(s.cacheTTL()),
			CreatedAt: s.now(),
		}
		if err := s.cache.PutCachedSearch(ctx, entry); err != nil {
			// Cache write failure degrades to recomputation next time.
			logger.Warn("Search cache write failed: %v", err)
		}
	}

	return results, nil
}

// compute runs the keyword and semantic signals in parallel, merges
// them with the configured weights, and enriches the hits from the
// feature graph.
func (s *SearchService) compute(ctx context.Context, query string, filters domain.SearchFilters, limit int) ([]domain.RankedResult, error) {
	internalLimit := limit * 3

	var (
		wg          sync.WaitGroup
		keywordHits []driven.KeywordHit
		keywordErr  error
		semantic    map[string]*scored
		semanticErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		keywordHits, keywordErr = s.index.KeywordSearch(ctx, query, filters, internalLimit)
	}()
	go func() {
		defer wg.Done()
		semantic, semanticErr = s.semanticScores(ctx, query, filters)
	}()
	wg.Wait()

	// Degrade gracefully when one signal fails; fail only when both do.
	if keywordErr != nil && semanticErr != nil {
		return nil, fmt.Errorf("search: keyword=%w, semantic=%w", keywordErr, semanticErr)
	}
	if keywordErr != nil {
		logger.Warn("Keyword search failed, semantic only: %v", keywordErr)
		keywordHits = nil
	}
	if semanticErr != nil {
		logger.Warn("Semantic search failed, keyword only: %v", semanticErr)
		semantic = nil
	}

	merged := mergeSignals(keywordHits, semantic)
	w := s.weights()

	results := make([]domain.RankedResult, 0, len(merged))
	for _, sc := range merged {
		r, err := s.hydrate(ctx, sc, w)
		if err != nil {
			logger.Warn("Skipping %s %s: %v", sc.kind, sc.id, err)
			continue
		}
		results = append(results, *r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].RelevanceScore != results[j].RelevanceScore {
			return results[i].RelevanceScore > results[j].RelevanceScore
		}
		return results[i].UpdatedAt.After(results[j].UpdatedAt)
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// semanticScores embeds the query and computes cosine similarity per
// entity, keeping each entity's best chunk.
func (s *SearchService) semanticScores(ctx context.Context, query string, filters domain.SearchFilters) (map[string]*scored, error) {
	if s.embedder == nil {
		return nil, nil
	}

	var queryVec []float32
	err := withRetries(ctx, embedAttempts, embedBackoff, func(ctx context.Context) error {
		embedCtx, cancel := context.WithTimeout(ctx, embedTimeout)
		defer cancel()

		var embedErr error
		queryVec, embedErr = s.embedder.Embed(embedCtx, query)
		return embedErr
	})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates, err := s.index.EmbeddingCandidates(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("embedding candidates: %w", err)
	}

	out := make(map[string]*scored)
	for _, c := range candidates {
		sim := cosineSimilarity(queryVec, c.Embedding)
		if sim <= 0 {
			continue
		}
		key := string(c.Kind) + "/" + c.ID
		if cur, ok := out[key]; !ok || sim > cur.semantic {
			out[key] = &scored{kind: c.Kind, id: c.ID, semantic: sim}
		}
	}
	return out, nil
}

// hydrate loads the entity behind a scored hit and attaches its graph
// neighbourhood.
func (s *SearchService) hydrate(ctx context.Context, sc *scored, w domain.SearchWeights) (*domain.RankedResult, error) {
	r := &domain.RankedResult{
		Kind:          sc.kind,
		ID:            sc.id,
		KeywordScore:  sc.keyword,
		SemanticScore: sc.semantic,
		Score:         w.Keyword*sc.keyword + w.Semantic*sc.semantic,
	}

	switch sc.kind {
	case domain.ResultKindDocument:
		doc, err := s.docStore.GetDocument(ctx, sc.id)
		if err != nil {
			return nil, err
		}
		r.Title = doc.Title
		r.Location = doc.URL
		r.Team = doc.Team
		r.UpdatedAt = doc.UpdatedAt
		r.Summary = sc.snippet
		if r.Summary == "" {
			r.Summary = excerpt(doc.Content)
		}
		s.enrichDocument(ctx, r, doc)

	case domain.ResultKindFeature:
		feature, err := s.featureStore.GetFeature(ctx, sc.id)
		if err != nil {
			return nil, err
		}
		r.Title = feature.Name
		r.UpdatedAt = feature.UpdatedAt
		r.RelevanceScore = feature.RelevanceScore
		r.Summary = sc.snippet
		if r.Summary == "" {
			r.Summary = excerpt(feature.Description)
		}
		s.enrichFeature(ctx, r, feature)

	default:
		return nil, fmt.Errorf("%w: unknown result kind %q", domain.ErrInvalidInput, sc.kind)
	}

	return r, nil
}

// enrichDocument attaches services and features whose mappings point
// at the document's location.
func (s *SearchService) enrichDocument(ctx context.Context, r *domain.RankedResult, doc *domain.Document) {
	services, err := s.serviceStore.ListServices(ctx)
	if err != nil {
		logger.Warn("Enrichment skipped for %s: %v", doc.ID, err)
		return
	}

	for _, svc := range services {
		mappings, err := s.mappingStore.GetMappings(ctx, svc.ID)
		if err != nil {
			continue
		}
		for _, m := range mappings {
			if m.Location != doc.SourceID && m.Location != doc.URL {
				continue
			}
			r.RelatedServices = appendUnique(r.RelatedServices, svc.Name)
			if m.FeatureID == "" {
				continue
			}
			if f, err := s.featureStore.GetFeature(ctx, m.FeatureID); err == nil {
				r.RelatedFeatures = appendUnique(r.RelatedFeatures, f.Name)
			}
		}
	}
}

// enrichFeature attaches the owning service, graph neighbours, and the
// feature's primary documentation location.
func (s *SearchService) enrichFeature(ctx context.Context, r *domain.RankedResult, feature *domain.Feature) {
	if svc, err := s.serviceStore.GetServiceByID(ctx, feature.ServiceID); err == nil {
		r.RelatedServices = appendUnique(r.RelatedServices, svc.Name)
	}

	if parents, err := s.featureStore.Parents(ctx, feature.ID); err == nil {
		for _, p := range parents {
			r.RelatedFeatures = appendUnique(r.RelatedFeatures, p.Name)
		}
	}
	if children, err := s.featureStore.Children(ctx, feature.ID); err == nil {
		for _, c := range children {
			r.RelatedFeatures = appendUnique(r.RelatedFeatures, c.Name)
		}
	}

	if mappings, err := s.mappingStore.GetMappingsForFeature(ctx, feature.ID); err == nil && len(mappings) > 0 {
		r.Location = mappings[0].Location
	}
}

// mergeSignals folds the keyword hits into the semantic score map.
// Keyword ranks are normalised to (0,1] against the best rank.
func mergeSignals(keywordHits []driven.KeywordHit, semantic map[string]*scored) map[string]*scored {
	merged := make(map[string]*scored, len(keywordHits)+len(semantic))
	for k, v := range semantic {
		merged[k] = v
	}

	// FTS5 bm25 ranks are negative, better matches more negative.
	var best float64
	for _, h := range keywordHits {
		if v := -h.Rank; v > best {
			best = v
		}
	}

	for _, h := range keywordHits {
		norm := 0.0
		if best > 0 {
			norm = -h.Rank / best
		}
		key := string(h.Kind) + "/" + h.ID
		if cur, ok := merged[key]; ok {
			if norm > cur.keyword {
				cur.keyword = norm
			}
			if cur.snippet == "" {
				cur.snippet = h.Snippet
			}
			continue
		}
		merged[key] = &scored{kind: h.Kind, id: h.ID, keyword: norm, snippet: h.Snippet}
	}

	return merged
}

// cosineSimilarity computes the cosine of the angle between two
// vectors. Mismatched or zero-length vectors score zero.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// normalizeQuery lowercases and collapses whitespace so equivalent
// queries share a cache entry.
func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// queryHash derives the cache key from the normalized query, filters,
// and limit. Returns the hash and the canonical parameter string.
func queryHash(normalized string, filters domain.SearchFilters, limit int) (string, string) {
	params := fmt.Sprintf("q=%s|team=%s|tags=%s|provider=%s|limit=%d",
		normalized, filters.Team, strings.Join(filters.Tags, ","), filters.Provider, limit)
	sum := sha256.Sum256([]byte(params))
	return hex.EncodeToString(sum[:]), params
}

// excerpt returns the head of text bounded to summaryLength runes.
func excerpt(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= summaryLength {
		return text
	}
	return string(runes[:summaryLength]) + "..."
}

// appendUnique appends value unless already present.
func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
