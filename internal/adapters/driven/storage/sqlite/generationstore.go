package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// generationStore implements driven.GenerationStore and
// driven.DiffCacheStore.
type generationStore struct {
	store *Store
}

var (
	_ driven.GenerationStore = (*generationStore)(nil)
	_ driven.DiffCacheStore  = (*generationStore)(nil)
)

const generationColumns = `id, service_id, provider, document_ref, action, source_type, source_identifier, content_hash, status, error, created_at`

// RecordGeneration appends a record.
func (s *generationStore) RecordGeneration(ctx context.Context, r *domain.GenerationRecord) (int64, error) {
	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO generation_history
			(service_id, provider, document_ref, action, source_type,
			 source_identifier, content_hash, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ServiceID, r.Provider, r.DocumentRef, string(r.Action), string(r.SourceType),
		r.SourceIdentifier, r.ContentHash, string(r.Status), r.Error, r.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("recording generation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading generation id: %w", err)
	}
	return id, nil
}

// RecentGenerations returns the newest records across all services.
func (s *generationStore) RecentGenerations(ctx context.Context, limit int) ([]domain.GenerationRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+generationColumns+` FROM generation_history
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying generations: %w", err)
	}
	defer rows.Close()

	return collectGenerations(rows)
}

// GenerationsForService returns the newest records for one service.
func (s *generationStore) GenerationsForService(ctx context.Context, serviceID int64, limit int) ([]domain.GenerationRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+generationColumns+` FROM generation_history
		WHERE service_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, serviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying service generations: %w", err)
	}
	defer rows.Close()

	return collectGenerations(rows)
}

// LatestSuccess returns the most recent successful record for the
// (service, provider, source identifier) triple.
func (s *generationStore) LatestSuccess(ctx context.Context, serviceID int64, provider, sourceIdentifier string) (*domain.GenerationRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+generationColumns+` FROM generation_history
		WHERE service_id = ? AND provider = ? AND source_identifier = ? AND status = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, serviceID, provider, sourceIdentifier, string(domain.StatusSuccess))

	rec, err := scanGeneration(row.Scan)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return rec, nil
}

// GetCachedDiff retrieves an entry whether or not it has expired.
func (s *generationStore) GetCachedDiff(ctx context.Context, sourceType domain.SourceType, identifier, repoPath string) (*domain.DiffCacheEntry, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, source_type, source_identifier, repository_path, diff, expires_at, created_at
		FROM diff_cache
		WHERE source_type = ? AND source_identifier = ? AND repository_path = ?
	`, string(sourceType), identifier, repoPath)

	var entry domain.DiffCacheEntry
	var srcType, diffJSON string
	var expiresAt sql.NullTime
	if err := row.Scan(&entry.ID, &srcType, &entry.SourceIdentifier,
		&entry.RepositoryPath, &diffJSON, &expiresAt, &entry.CreatedAt); err != nil {
		return nil, translateNotFound(err)
	}

	entry.SourceType = domain.SourceType(srcType)
	if expiresAt.Valid {
		entry.ExpiresAt = expiresAt.Time
	}
	if err := json.Unmarshal([]byte(diffJSON), &entry.Diff); err != nil {
		return nil, fmt.Errorf("unmarshalling cached diff: %w", err)
	}
	return &entry, nil
}

// PutCachedDiff stores or replaces an entry for the uniqueness triple.
func (s *generationStore) PutCachedDiff(ctx context.Context, entry *domain.DiffCacheEntry) error {
	diffJSON, err := json.Marshal(entry.Diff)
	if err != nil {
		return fmt.Errorf("marshalling diff: %w", err)
	}

	var expiresAt any
	if !entry.ExpiresAt.IsZero() {
		expiresAt = entry.ExpiresAt.UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO diff_cache
			(source_type, source_identifier, repository_path, diff, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_type, source_identifier, repository_path) DO UPDATE SET
			diff = excluded.diff,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at
	`, string(entry.SourceType), entry.SourceIdentifier, entry.RepositoryPath,
		string(diffJSON), expiresAt, entry.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving cached diff: %w", err)
	}
	return nil
}

// ClearExpiredDiffs drops entries past their TTL.
func (s *generationStore) ClearExpiredDiffs(ctx context.Context) (int64, error) {
	res, err := s.store.db.ExecContext(ctx,
		"DELETE FROM diff_cache WHERE expires_at IS NOT NULL AND expires_at <= ?",
		time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning diff cache: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return removed, nil
}

// ClearAllDiffs drops every entry.
func (s *generationStore) ClearAllDiffs(ctx context.Context) (int64, error) {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM diff_cache")
	if err != nil {
		return 0, fmt.Errorf("clearing diff cache: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return removed, nil
}

func scanGeneration(scan func(...any) error) (*domain.GenerationRecord, error) {
	var r domain.GenerationRecord
	var action, sourceType, status string
	if err := scan(&r.ID, &r.ServiceID, &r.Provider, &r.DocumentRef, &action,
		&sourceType, &r.SourceIdentifier, &r.ContentHash, &status,
		&r.Error, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Action = domain.GenerationAction(action)
	r.SourceType = domain.SourceType(sourceType)
	r.Status = domain.GenerationStatus(status)
	return &r, nil
}

func collectGenerations(rows *sql.Rows) ([]domain.GenerationRecord, error) {
	var records []domain.GenerationRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		rec, err := scanGeneration(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning generation: %w", err)
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating generations: %w", err)
	}
	return records, nil
}
