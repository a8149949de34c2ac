package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore and driven.SyncBatchStore.
type documentStore struct {
	store *Store
}

var (
	_ driven.DocumentStore  = (*documentStore)(nil)
	_ driven.SyncBatchStore = (*documentStore)(nil)
)

const documentColumns = `id, source_id, provider, scope, title, url, content, content_hash, team, tags, updated_at, fetched_at`

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

// GetDocumentByURL retrieves a document by its remote URL.
func (s *documentStore) GetDocumentByURL(ctx context.Context, url string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE url = ?`, url)
	return scanDocument(row)
}

// ListDocuments returns documents matching the filters, newest first.
func (s *documentStore) ListDocuments(ctx context.Context, filters domain.SearchFilters) ([]domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents`
	where, args := documentFilterClauses(filters)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at DESC"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// GetChunks retrieves a document's chunks ordered by ordinal.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, ordinal, content, embedding
		FROM chunks WHERE document_id = ?
		ORDER BY ordinal
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var embedding []byte
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Ordinal, &chunk.Text, &embedding); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.Embedding = bytesToFloat32Slice(embedding)
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// ScopeInventory returns source id -> content hash for a scope.
func (s *documentStore) ScopeInventory(ctx context.Context, scope string) (map[string]string, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT source_id, content_hash FROM documents WHERE scope = ?", scope)
	if err != nil {
		return nil, fmt.Errorf("querying scope inventory: %w", err)
	}
	defer rows.Close()

	inventory := make(map[string]string)
	for rows.Next() {
		var sourceID, hash string
		if err := rows.Scan(&sourceID, &hash); err != nil {
			return nil, fmt.Errorf("scanning inventory row: %w", err)
		}
		inventory[sourceID] = hash
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating inventory: %w", err)
	}
	return inventory, nil
}

// GetSyncState retrieves the scope's cursor.
func (s *documentStore) GetSyncState(ctx context.Context, scope string) (*domain.SyncState, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT scope, cursor, last_synced_at FROM sync_state WHERE scope = ?", scope)

	var state domain.SyncState
	if err := row.Scan(&state.Scope, &state.Cursor, &state.LastSyncedAt); err != nil {
		return nil, translateNotFound(err)
	}
	return &state, nil
}

// ApplySyncBatch applies the batch in one transaction: document and
// chunk upserts, full-text index maintenance, tombstones, cursor
// advance, and search cache invalidation. A failure anywhere rolls the
// whole batch back.
func (s *documentStore) ApplySyncBatch(ctx context.Context, batch driven.SyncBatch) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, up := range batch.Upserts {
		if err := applyUpsert(ctx, tx, up); err != nil {
			return err
		}
	}

	for _, sourceID := range batch.RemoveSourceIDs {
		if err := removeDocument(ctx, tx, batch.Scope, sourceID); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sync_state (scope, cursor, last_synced_at)
		VALUES (?, ?, ?)
		ON CONFLICT(scope) DO UPDATE SET
			cursor = excluded.cursor,
			last_synced_at = excluded.last_synced_at
	`, batch.NewState.Scope, batch.NewState.Cursor, batch.NewState.LastSyncedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving sync state: %w", err)
	}

	// Cached result sets may reference documents this batch changed.
	if _, err := tx.ExecContext(ctx, "DELETE FROM search_cache"); err != nil {
		return fmt.Errorf("invalidating search cache: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing sync batch: %w", err)
	}
	return nil
}

// applyUpsert replaces one document, its chunks, and its full-text row.
func applyUpsert(ctx context.Context, tx *sql.Tx, up driven.DocumentUpsert) error {
	doc := up.Document

	// A changed document gets a fresh local id; drop the old row first
	// so chunks and the FTS row cascade cleanly.
	if err := removeDocument(ctx, tx, doc.Scope, doc.SourceID); err != nil {
		return err
	}

	tags, err := marshalStrings(doc.Tags)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.SourceID, doc.Provider, doc.Scope, doc.Title, doc.URL,
		doc.Content, doc.ContentHash, doc.Team, tags,
		doc.UpdatedAt.UTC(), doc.FetchedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving document %s: %w", doc.SourceID, err)
	}

	for _, chunk := range up.Chunks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO chunks (id, document_id, ordinal, content, embedding)
			VALUES (?, ?, ?, ?, ?)
		`, chunk.ID, chunk.DocumentID, chunk.Ordinal, chunk.Text,
			float32SliceToBytes(chunk.Embedding))
		if err != nil {
			return fmt.Errorf("saving chunk for %s: %w", doc.SourceID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents_fts (doc_id, title, content)
		VALUES (?, ?, ?)
	`, doc.ID, doc.Title, doc.Content)
	if err != nil {
		return fmt.Errorf("indexing document %s: %w", doc.SourceID, err)
	}

	return nil
}

// removeDocument deletes a document by (scope, source id) along with
// its chunks and full-text row. Missing documents are a no-op.
func removeDocument(ctx context.Context, tx *sql.Tx, scope, sourceID string) error {
	var id string
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM documents WHERE scope = ? AND source_id = ?", scope, sourceID).Scan(&id)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking up document %s: %w", sourceID, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents_fts WHERE doc_id = ?", id); err != nil {
		return fmt.Errorf("unindexing document %s: %w", sourceID, err)
	}
	// Chunks cascade via the foreign key.
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting document %s: %w", sourceID, err)
	}
	return nil
}

// documentFilterClauses builds WHERE fragments for SearchFilters.
func documentFilterClauses(filters domain.SearchFilters) ([]string, []any) {
	var (
		where []string
		args  []any
	)
	if filters.Team != "" {
		where = append(where, "team = ?")
		args = append(args, filters.Team)
	}
	if filters.Provider != "" {
		where = append(where, "provider = ?")
		args = append(args, filters.Provider)
	}
	for _, tag := range filters.Tags {
		// Tags are stored as a JSON array; match the quoted element.
		where = append(where, "tags LIKE ?")
		args = append(args, `%"`+tag+`"%`)
	}
	return where, args
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var tags string

	if err := row.Scan(&doc.ID, &doc.SourceID, &doc.Provider, &doc.Scope,
		&doc.Title, &doc.URL, &doc.Content, &doc.ContentHash, &doc.Team,
		&tags, &doc.UpdatedAt, &doc.FetchedAt); err != nil {
		return nil, translateNotFound(err)
	}

	parsed, err := unmarshalStrings(tags)
	if err != nil {
		return nil, err
	}
	doc.Tags = parsed
	return &doc, nil
}

// scanDocumentRows scans a document from a multi-row result set.
func scanDocumentRows(rows *sql.Rows) (*domain.Document, error) {
	var doc domain.Document
	var tags string

	if err := rows.Scan(&doc.ID, &doc.SourceID, &doc.Provider, &doc.Scope,
		&doc.Title, &doc.URL, &doc.Content, &doc.ContentHash, &doc.Team,
		&tags, &doc.UpdatedAt, &doc.FetchedAt); err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	parsed, err := unmarshalStrings(tags)
	if err != nil {
		return nil, err
	}
	doc.Tags = parsed
	return &doc, nil
}
