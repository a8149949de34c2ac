package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// serviceStore implements driven.ServiceStore and driven.MappingStore.
type serviceStore struct {
	store *Store
}

var (
	_ driven.ServiceStore = (*serviceStore)(nil)
	_ driven.MappingStore = (*serviceStore)(nil)
)

const mappingColumns = `id, service_id, provider, location, title, section, is_primary, feature_id, created_at, updated_at`

// CreateService registers a new service.
func (s *serviceStore) CreateService(ctx context.Context, name, path, description string) (*domain.Service, error) {
	now := time.Now().UTC()

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO services (name, path, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, name, path, description, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("creating service: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading service id: %w", err)
	}

	return &domain.Service{
		ID:          id,
		Name:        name,
		Path:        path,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// GetService retrieves a service by name.
func (s *serviceStore) GetService(ctx context.Context, name string) (*domain.Service, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, path, description, created_at, updated_at
		FROM services WHERE name = ?
	`, name)
	return scanService(row)
}

// GetServiceByID retrieves a service by database id.
func (s *serviceStore) GetServiceByID(ctx context.Context, id int64) (*domain.Service, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, path, description, created_at, updated_at
		FROM services WHERE id = ?
	`, id)
	return scanService(row)
}

// ListServices returns all services ordered by name.
func (s *serviceStore) ListServices(ctx context.Context) ([]domain.Service, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, path, description, created_at, updated_at
		FROM services ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying services: %w", err)
	}
	defer rows.Close()

	var services []domain.Service //nolint:prealloc // size unknown from query
	for rows.Next() {
		var svc domain.Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Path, &svc.Description,
			&svc.CreatedAt, &svc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning service: %w", err)
		}
		services = append(services, svc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating services: %w", err)
	}
	return services, nil
}

// UpdateService updates path and description.
func (s *serviceStore) UpdateService(ctx context.Context, id int64, path, description string) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE services SET path = ?, description = ?, updated_at = ?
		WHERE id = ?
	`, path, description, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating service: %w", err)
	}
	return requireRowAffected(res)
}

// DeleteService removes a service. Mappings and features cascade.
func (s *serviceStore) DeleteService(ctx context.Context, name string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM services WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting service: %w", err)
	}
	return requireRowAffected(res)
}

// AddMapping stores a new mapping.
func (s *serviceStore) AddMapping(ctx context.Context, m *domain.DocumentMapping) (*domain.DocumentMapping, error) {
	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO document_mappings
			(service_id, provider, location, title, section, is_primary, feature_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ServiceID, m.Provider, m.Location, m.Title, m.Section,
		m.IsPrimary, m.FeatureID, m.CreatedAt.UTC(), m.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("creating mapping: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading mapping id: %w", err)
	}

	stored := *m
	stored.ID = id
	return &stored, nil
}

// GetMappings returns a service's mappings, primary first.
func (s *serviceStore) GetMappings(ctx context.Context, serviceID int64) ([]domain.DocumentMapping, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+mappingColumns+` FROM document_mappings
		WHERE service_id = ?
		ORDER BY is_primary DESC, id
	`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("querying mappings: %w", err)
	}
	defer rows.Close()

	return collectMappings(rows)
}

// GetPrimaryMapping returns the service's primary mapping.
func (s *serviceStore) GetPrimaryMapping(ctx context.Context, serviceID int64) (*domain.DocumentMapping, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+mappingColumns+` FROM document_mappings
		WHERE service_id = ? AND is_primary = 1
	`, serviceID)
	return scanMapping(row)
}

// SetPrimaryMapping clears the service's current primary flag and sets
// it on the given mapping, in one transaction.
func (s *serviceStore) SetPrimaryMapping(ctx context.Context, serviceID, mappingID int64) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"UPDATE document_mappings SET is_primary = 0 WHERE service_id = ?", serviceID); err != nil {
		return fmt.Errorf("clearing primary flag: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE document_mappings SET is_primary = 1 WHERE id = ? AND service_id = ?",
		mappingID, serviceID)
	if err != nil {
		return fmt.Errorf("setting primary flag: %w", err)
	}
	if err := requireRowAffected(res); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing primary change: %w", err)
	}
	return nil
}

// RemoveMapping deletes by the uniqueness triple.
func (s *serviceStore) RemoveMapping(ctx context.Context, serviceID int64, provider, location string) error {
	res, err := s.store.db.ExecContext(ctx, `
		DELETE FROM document_mappings
		WHERE service_id = ? AND provider = ? AND location = ?
	`, serviceID, provider, location)
	if err != nil {
		return fmt.Errorf("deleting mapping: %w", err)
	}
	return requireRowAffected(res)
}

// LinkMappingFeature attaches a feature to the mapping with the given
// location, creating the mapping when it does not exist yet.
func (s *serviceStore) LinkMappingFeature(ctx context.Context, serviceID int64, location, featureID string) (*domain.DocumentMapping, error) {
	now := time.Now().UTC()

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE document_mappings SET feature_id = ?, updated_at = ?
		WHERE service_id = ? AND location = ?
	`, featureID, now, serviceID, location)
	if err != nil {
		return nil, fmt.Errorf("linking mapping: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("reading affected rows: %w", err)
	}
	if affected == 0 {
		return s.AddMapping(ctx, &domain.DocumentMapping{
			ServiceID: serviceID,
			Provider:  "confluence",
			Location:  location,
			FeatureID: featureID,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+mappingColumns+` FROM document_mappings
		WHERE service_id = ? AND location = ?
	`, serviceID, location)
	return scanMapping(row)
}

// GetMappingsForFeature returns mappings linked to a feature.
func (s *serviceStore) GetMappingsForFeature(ctx context.Context, featureID string) ([]domain.DocumentMapping, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+mappingColumns+` FROM document_mappings
		WHERE feature_id = ?
		ORDER BY id
	`, featureID)
	if err != nil {
		return nil, fmt.Errorf("querying feature mappings: %w", err)
	}
	defer rows.Close()

	return collectMappings(rows)
}

func scanService(row *sql.Row) (*domain.Service, error) {
	var svc domain.Service
	if err := row.Scan(&svc.ID, &svc.Name, &svc.Path, &svc.Description,
		&svc.CreatedAt, &svc.UpdatedAt); err != nil {
		return nil, translateNotFound(err)
	}
	return &svc, nil
}

func scanMapping(row *sql.Row) (*domain.DocumentMapping, error) {
	var m domain.DocumentMapping
	if err := row.Scan(&m.ID, &m.ServiceID, &m.Provider, &m.Location,
		&m.Title, &m.Section, &m.IsPrimary, &m.FeatureID,
		&m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, translateNotFound(err)
	}
	return &m, nil
}

func collectMappings(rows *sql.Rows) ([]domain.DocumentMapping, error) {
	var mappings []domain.DocumentMapping //nolint:prealloc // size unknown from query
	for rows.Next() {
		var m domain.DocumentMapping
		if err := rows.Scan(&m.ID, &m.ServiceID, &m.Provider, &m.Location,
			&m.Title, &m.Section, &m.IsPrimary, &m.FeatureID,
			&m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning mapping: %w", err)
		}
		mappings = append(mappings, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating mappings: %w", err)
	}
	return mappings, nil
}

// requireRowAffected maps a zero-row write to domain.ErrNotFound.
func requireRowAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
