package memory

import (
	"context"
	"strings"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// Ensure SearchIndex implements the interface.
var _ driven.SearchIndex = (*SearchIndex)(nil)

// SearchIndex is a naive in-memory implementation of driven.SearchIndex
// over the memory stores. Keyword ranking counts term occurrences;
// ranks are negated to follow the bm25 lower-is-better convention.
type SearchIndex struct {
	docs     *DocumentStore
	features *FeatureStore
}

// NewSearchIndex creates a search index over the given stores.
func NewSearchIndex(docs *DocumentStore, features *FeatureStore) *SearchIndex {
	return &SearchIndex{docs: docs, features: features}
}

// KeywordSearch scans document content and feature index entries for
// the query terms.
func (s *SearchIndex) KeywordSearch(ctx context.Context, query string, filters domain.SearchFilters, limit int) ([]driven.KeywordHit, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}

	var hits []driven.KeywordHit

	docs, err := s.docs.ListDocuments(ctx, filters)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		text := strings.ToLower(doc.Title + " " + doc.Content)
		if count := termMatches(text, terms); count > 0 {
			hits = append(hits, driven.KeywordHit{
				Kind:    domain.ResultKindDocument,
				ID:      doc.ID,
				Rank:    -float64(count),
				Snippet: snippetAround(doc.Content, terms[0]),
			})
		}
	}

	// Feature entries ignore document filters except tags via the
	// feature itself.
	features, err := s.features.ListFeatures(ctx, 0, filters.Team)
	if err != nil {
		return nil, err
	}
	for _, f := range features {
		entries, err := s.features.SearchEntries(ctx, f.ID)
		if err != nil {
			return nil, err
		}
		var best int
		for _, e := range entries {
			if count := termMatches(strings.ToLower(e.Content), terms); count > best {
				best = count
			}
		}
		if best > 0 {
			hits = append(hits, driven.KeywordHit{
				Kind: domain.ResultKindFeature,
				ID:   f.ID,
				Rank: -float64(best),
			})
		}
	}

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// EmbeddingCandidates returns stored chunk and feature entry vectors.
func (s *SearchIndex) EmbeddingCandidates(ctx context.Context, filters domain.SearchFilters) ([]driven.EmbeddingCandidate, error) {
	var candidates []driven.EmbeddingCandidate

	docs, err := s.docs.ListDocuments(ctx, filters)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		chunks, err := s.docs.GetChunks(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		for _, chunk := range chunks {
			if len(chunk.Embedding) == 0 {
				continue
			}
			candidates = append(candidates, driven.EmbeddingCandidate{
				Kind:      domain.ResultKindDocument,
				ID:        doc.ID,
				Embedding: chunk.Embedding,
			})
		}
	}

	features, err := s.features.ListFeatures(ctx, 0, filters.Team)
	if err != nil {
		return nil, err
	}
	for _, f := range features {
		entries, err := s.features.SearchEntries(ctx, f.ID)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if len(e.Embedding) == 0 {
				continue
			}
			candidates = append(candidates, driven.EmbeddingCandidate{
				Kind:      domain.ResultKindFeature,
				ID:        f.ID,
				Embedding: e.Embedding,
			})
		}
	}

	return candidates, nil
}

func termMatches(text string, terms []string) int {
	var count int
	for _, term := range terms {
		count += strings.Count(text, term)
	}
	return count
}

func snippetAround(content, term string) string {
	idx := strings.Index(strings.ToLower(content), term)
	if idx < 0 {
		return ""
	}
	start := idx - 60
	if start < 0 {
		start = 0
	}
	end := idx + 120
	if end > len(content) {
		end = len(content)
	}
	return strings.TrimSpace(content[start:end])
}
