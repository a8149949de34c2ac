package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// featureStore implements driven.FeatureStore.
type featureStore struct {
	store *Store
}

var _ driven.FeatureStore = (*featureStore)(nil)

const featureColumns = `id, service_id, name, description, feature_type, tags, metadata, relevance_score, embedding, created_at, updated_at`

// CreateFeature stores a new feature.
func (s *featureStore) CreateFeature(ctx context.Context, f *domain.Feature) (*domain.Feature, error) {
	tags, err := marshalStrings(f.Tags)
	if err != nil {
		return nil, err
	}

	metadata := "{}"
	if f.Metadata != nil {
		data, err := json.Marshal(f.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshalling metadata: %w", err)
		}
		metadata = string(data)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO features (`+featureColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, f.ID, f.ServiceID, f.Name, f.Description, string(f.Type), tags, metadata,
		f.RelevanceScore, float32SliceToBytes(f.Embedding),
		f.CreatedAt.UTC(), f.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("creating feature: %w", err)
	}

	stored := *f
	return &stored, nil
}

// GetFeature retrieves a feature by id.
func (s *featureStore) GetFeature(ctx context.Context, id string) (*domain.Feature, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+featureColumns+` FROM features WHERE id = ?`, id)

	f, err := scanFeatureRow(row.Scan)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return f, nil
}

// ListFeatures returns features filtered by service id (0 = all) and
// team tag, ordered by name.
func (s *featureStore) ListFeatures(ctx context.Context, serviceID int64, team string) ([]domain.Feature, error) {
	query := `SELECT ` + featureColumns + ` FROM features`
	var (
		where []string
		args  []any
	)
	if serviceID != 0 {
		where = append(where, "service_id = ?")
		args = append(args, serviceID)
	}
	if team != "" {
		where = append(where, "tags LIKE ?")
		args = append(args, `%"`+team+`"%`)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying features: %w", err)
	}
	defer rows.Close()

	var features []domain.Feature //nolint:prealloc // size unknown from query
	for rows.Next() {
		f, err := scanFeatureRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning feature: %w", err)
		}
		features = append(features, *f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating features: %w", err)
	}
	return features, nil
}

// UpdateRelevance persists a recomputed relevance score.
func (s *featureStore) UpdateRelevance(ctx context.Context, featureID string, score float64) error {
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE features SET relevance_score = ? WHERE id = ?", score, featureID)
	if err != nil {
		return fmt.Errorf("updating relevance: %w", err)
	}
	return requireRowAffected(res)
}

// AddRelation stores a directed edge.
func (s *featureStore) AddRelation(ctx context.Context, r *domain.FeatureRelation) (*domain.FeatureRelation, error) {
	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO feature_relations (parent_id, child_id, relation_type, strength, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, r.ParentID, r.ChildID, string(r.Type), r.Strength, r.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("creating relation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading relation id: %w", err)
	}

	stored := *r
	stored.ID = id
	return &stored, nil
}

// Parents returns features with an edge into the given feature.
func (s *featureStore) Parents(ctx context.Context, featureID string) ([]domain.Feature, error) {
	return s.neighbours(ctx, `
		SELECT f.id, f.service_id, f.name, f.description, f.feature_type, f.tags,
			f.metadata, f.relevance_score, f.embedding, f.created_at, f.updated_at
		FROM features f
		JOIN feature_relations r ON r.parent_id = f.id
		WHERE r.child_id = ?
		ORDER BY f.name
	`, featureID)
}

// Children returns features the given feature has an edge to.
func (s *featureStore) Children(ctx context.Context, featureID string) ([]domain.Feature, error) {
	return s.neighbours(ctx, `
		SELECT f.id, f.service_id, f.name, f.description, f.feature_type, f.tags,
			f.metadata, f.relevance_score, f.embedding, f.created_at, f.updated_at
		FROM features f
		JOIN feature_relations r ON r.child_id = f.id
		WHERE r.parent_id = ?
		ORDER BY f.name
	`, featureID)
}

func (s *featureStore) neighbours(ctx context.Context, query, featureID string) ([]domain.Feature, error) {
	rows, err := s.store.db.QueryContext(ctx, query, featureID)
	if err != nil {
		return nil, fmt.Errorf("querying relations: %w", err)
	}
	defer rows.Close()

	var features []domain.Feature //nolint:prealloc // size unknown from query
	for rows.Next() {
		f, err := scanFeatureRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning related feature: %w", err)
		}
		features = append(features, *f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relations: %w", err)
	}
	return features, nil
}

// ChildIDs returns edge targets restricted to one relation type.
func (s *featureStore) ChildIDs(ctx context.Context, featureID string, relType domain.RelationType) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT child_id FROM feature_relations
		WHERE parent_id = ? AND relation_type = ?
	`, featureID, string(relType))
	if err != nil {
		return nil, fmt.Errorf("querying child ids: %w", err)
	}
	defer rows.Close()

	var ids []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning child id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating child ids: %w", err)
	}
	return ids, nil
}

// RelationCounts returns, per feature id, the number of edges touching it.
func (s *featureStore) RelationCounts(ctx context.Context, featureIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(featureIDs))
	if len(featureIDs) == 0 {
		return counts, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(featureIDs)), ",")
	args := make([]any, 0, len(featureIDs)*2)
	for _, id := range featureIDs {
		args = append(args, id)
	}
	for _, id := range featureIDs {
		args = append(args, id)
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT fid, COUNT(*) FROM (
			SELECT parent_id AS fid FROM feature_relations WHERE parent_id IN (`+placeholders+`)
			UNION ALL
			SELECT child_id AS fid FROM feature_relations WHERE child_id IN (`+placeholders+`)
		) GROUP BY fid
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying relation counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("scanning relation count: %w", err)
		}
		counts[id] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relation counts: %w", err)
	}
	return counts, nil
}

// AddSearchEntry stores denormalised searchable text for a feature and
// mirrors it into the full-text index.
func (s *featureStore) AddSearchEntry(ctx context.Context, e *domain.SearchIndexEntry) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `
		INSERT INTO search_index (feature_id, content_type, content, embedding)
		VALUES (?, ?, ?, ?)
	`, e.FeatureID, e.ContentType, e.Content, float32SliceToBytes(e.Embedding))
	if err != nil {
		return fmt.Errorf("creating search entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading search entry id: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO search_index_fts (entry_id, feature_id, content)
		VALUES (?, ?, ?)
	`, id, e.FeatureID, e.Content)
	if err != nil {
		return fmt.Errorf("indexing search entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing search entry: %w", err)
	}

	e.ID = id
	return nil
}

// SearchEntries returns the index entries for a feature.
func (s *featureStore) SearchEntries(ctx context.Context, featureID string) ([]domain.SearchIndexEntry, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, feature_id, content_type, content, embedding
		FROM search_index WHERE feature_id = ?
		ORDER BY id
	`, featureID)
	if err != nil {
		return nil, fmt.Errorf("querying search entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.SearchIndexEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		var e domain.SearchIndexEntry
		var embedding []byte
		if err := rows.Scan(&e.ID, &e.FeatureID, &e.ContentType, &e.Content, &embedding); err != nil {
			return nil, fmt.Errorf("scanning search entry: %w", err)
		}
		e.Embedding = bytesToFloat32Slice(embedding)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search entries: %w", err)
	}
	return entries, nil
}

// scanFeatureRow scans one feature using the given scan func, so the
// same decoding serves *sql.Row and *sql.Rows.
func scanFeatureRow(scan func(...any) error) (*domain.Feature, error) {
	var f domain.Feature
	var featureType, tags, metadata string
	var embedding []byte

	if err := scan(&f.ID, &f.ServiceID, &f.Name, &f.Description, &featureType,
		&tags, &metadata, &f.RelevanceScore, &embedding,
		&f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}

	f.Type = domain.ParseFeatureType(featureType)
	f.Embedding = bytesToFloat32Slice(embedding)

	parsed, err := unmarshalStrings(tags)
	if err != nil {
		return nil, err
	}
	f.Tags = parsed

	if metadata != "" && metadata != "{}" {
		if err := json.Unmarshal([]byte(metadata), &f.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}
	}

	return &f, nil
}
