package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// searchIndex implements driven.SearchIndex on the FTS5 shadow tables
// and the stored embedding blobs.
type searchIndex struct {
	store *Store
}

var _ driven.SearchIndex = (*searchIndex)(nil)

// KeywordSearch runs bm25-ranked full-text retrieval over document
// content and feature search entries.
func (s *searchIndex) KeywordSearch(ctx context.Context, query string, filters domain.SearchFilters, limit int) ([]driven.KeywordHit, error) {
	match := matchExpression(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	hits, err := s.documentHits(ctx, match, filters, limit)
	if err != nil {
		return nil, err
	}

	featureHits, err := s.featureHits(ctx, match, limit)
	if err != nil {
		return nil, err
	}

	return append(hits, featureHits...), nil
}

// documentHits queries documents_fts, pushing the filters into the
// joined documents table.
func (s *searchIndex) documentHits(ctx context.Context, match string, filters domain.SearchFilters, limit int) ([]driven.KeywordHit, error) {
	query := `
		SELECT f.doc_id, bm25(documents_fts) AS rank,
			snippet(documents_fts, 2, '', '', '...', 12)
		FROM documents_fts f
		JOIN documents d ON d.id = f.doc_id
		WHERE documents_fts MATCH ?`
	args := []any{match}

	where, filterArgs := documentFilterClauses(filters)
	for _, clause := range where {
		query += " AND d." + clause
	}
	args = append(args, filterArgs...)

	query += " ORDER BY rank LIMIT ?"
	args = append(args, limit)

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying document index: %w", err)
	}
	defer rows.Close()

	var hits []driven.KeywordHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		hit := driven.KeywordHit{Kind: domain.ResultKindDocument}
		if err := rows.Scan(&hit.ID, &hit.Rank, &hit.Snippet); err != nil {
			return nil, fmt.Errorf("scanning document hit: %w", err)
		}
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document hits: %w", err)
	}
	return hits, nil
}

// featureHits queries search_index_fts, keeping each feature's best rank.
func (s *searchIndex) featureHits(ctx context.Context, match string, limit int) ([]driven.KeywordHit, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		WITH matches AS MATERIALIZED (
			SELECT feature_id, bm25(search_index_fts) AS rank
			FROM search_index_fts
			WHERE search_index_fts MATCH ?
		)
		SELECT feature_id, MIN(rank) AS rank
		FROM matches
		GROUP BY feature_id
		ORDER BY rank
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("querying feature index: %w", err)
	}
	defer rows.Close()

	var hits []driven.KeywordHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		hit := driven.KeywordHit{Kind: domain.ResultKindFeature}
		if err := rows.Scan(&hit.ID, &hit.Rank); err != nil {
			return nil, fmt.Errorf("scanning feature hit: %w", err)
		}
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feature hits: %w", err)
	}
	return hits, nil
}

// EmbeddingCandidates returns stored chunk and feature entry vectors.
func (s *searchIndex) EmbeddingCandidates(ctx context.Context, filters domain.SearchFilters) ([]driven.EmbeddingCandidate, error) {
	query := `
		SELECT d.id, c.embedding
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.embedding IS NOT NULL`
	var args []any

	where, filterArgs := documentFilterClauses(filters)
	for _, clause := range where {
		query += " AND d." + clause
	}
	args = append(args, filterArgs...)

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunk embeddings: %w", err)
	}
	defer rows.Close()

	var candidates []driven.EmbeddingCandidate //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		var embedding []byte
		if err := rows.Scan(&id, &embedding); err != nil {
			return nil, fmt.Errorf("scanning chunk embedding: %w", err)
		}
		candidates = append(candidates, driven.EmbeddingCandidate{
			Kind:      domain.ResultKindDocument,
			ID:        id,
			Embedding: bytesToFloat32Slice(embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunk embeddings: %w", err)
	}

	featRows, err := s.store.db.QueryContext(ctx, `
		SELECT feature_id, embedding FROM search_index
		WHERE embedding IS NOT NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("querying feature embeddings: %w", err)
	}
	defer featRows.Close()

	for featRows.Next() {
		var id string
		var embedding []byte
		if err := featRows.Scan(&id, &embedding); err != nil {
			return nil, fmt.Errorf("scanning feature embedding: %w", err)
		}
		candidates = append(candidates, driven.EmbeddingCandidate{
			Kind:      domain.ResultKindFeature,
			ID:        id,
			Embedding: bytesToFloat32Slice(embedding),
		})
	}
	if err := featRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feature embeddings: %w", err)
	}

	return candidates, nil
}

// searchCacheStore implements driven.SearchCacheStore.
type searchCacheStore struct {
	store *Store
}

var _ driven.SearchCacheStore = (*searchCacheStore)(nil)

// GetCachedSearch retrieves a cache entry.
func (s *searchCacheStore) GetCachedSearch(ctx context.Context, queryHash string) (*domain.CachedSearch, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT query_hash, params, results, expires_at, created_at
		FROM search_cache WHERE query_hash = ?
	`, queryHash)

	var entry domain.CachedSearch
	var results string
	if err := row.Scan(&entry.QueryHash, &entry.Params, &results,
		&entry.ExpiresAt, &entry.CreatedAt); err != nil {
		return nil, translateNotFound(err)
	}

	if err := json.Unmarshal([]byte(results), &entry.Results); err != nil {
		return nil, fmt.Errorf("unmarshalling cached results: %w", err)
	}
	return &entry, nil
}

// PutCachedSearch stores or replaces an entry.
func (s *searchCacheStore) PutCachedSearch(ctx context.Context, entry *domain.CachedSearch) error {
	results, err := json.Marshal(entry.Results)
	if err != nil {
		return fmt.Errorf("marshalling results: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO search_cache (query_hash, params, results, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(query_hash) DO UPDATE SET
			params = excluded.params,
			results = excluded.results,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at
	`, entry.QueryHash, entry.Params, string(results),
		entry.ExpiresAt.UTC(), entry.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving cache entry: %w", err)
	}
	return nil
}

// InvalidateSearchCache drops all entries.
func (s *searchCacheStore) InvalidateSearchCache(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM search_cache"); err != nil {
		return fmt.Errorf("invalidating search cache: %w", err)
	}
	return nil
}

// DeleteExpiredSearchCache drops entries past their TTL.
func (s *searchCacheStore) DeleteExpiredSearchCache(ctx context.Context) (int64, error) {
	res, err := s.store.db.ExecContext(ctx,
		"DELETE FROM search_cache WHERE expires_at <= ?", time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning search cache: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return removed, nil
}
