package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// Ensure ServiceStore implements the interfaces.
var (
	_ driven.ServiceStore = (*ServiceStore)(nil)
	_ driven.MappingStore = (*ServiceStore)(nil)
)

// ServiceStore is an in-memory implementation of driven.ServiceStore
// and driven.MappingStore. The two live together because mappings
// cascade on service deletion.
type ServiceStore struct {
	mu            sync.RWMutex
	services      map[int64]domain.Service
	mappings      map[int64]domain.DocumentMapping
	nextServiceID int64
	nextMappingID int64
}

// NewServiceStore creates a new in-memory service store.
func NewServiceStore() *ServiceStore {
	return &ServiceStore{
		services: make(map[int64]domain.Service),
		mappings: make(map[int64]domain.DocumentMapping),
	}
}

// CreateService registers a new service.
func (s *ServiceStore) CreateService(_ context.Context, name, path, description string) (*domain.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.services {
		if s.services[id].Name == name {
			return nil, domain.ErrConflict
		}
	}

	s.nextServiceID++
	now := time.Now()
	svc := domain.Service{
		ID:          s.nextServiceID,
		Name:        name,
		Path:        path,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.services[svc.ID] = svc
	return &svc, nil
}

// GetService retrieves a service by name.
func (s *ServiceStore) GetService(_ context.Context, name string) (*domain.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id := range s.services {
		if s.services[id].Name == name {
			svc := s.services[id]
			return &svc, nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetServiceByID retrieves a service by database id.
func (s *ServiceStore) GetServiceByID(_ context.Context, id int64) (*domain.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &svc, nil
}

// ListServices returns all services ordered by name.
func (s *ServiceStore) ListServices(_ context.Context) ([]domain.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Service, 0, len(s.services))
	for id := range s.services {
		result = append(result, s.services[id])
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// UpdateService updates path and description.
func (s *ServiceStore) UpdateService(_ context.Context, id int64, path, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, ok := s.services[id]
	if !ok {
		return domain.ErrNotFound
	}
	svc.Path = path
	svc.Description = description
	svc.UpdatedAt = time.Now()
	s.services[id] = svc
	return nil
}

// DeleteService removes a service and cascades to its mappings.
func (s *ServiceStore) DeleteService(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.services {
		if s.services[id].Name != name {
			continue
		}
		delete(s.services, id)
		for mid := range s.mappings {
			if s.mappings[mid].ServiceID == id {
				delete(s.mappings, mid)
			}
		}
		return nil
	}
	return domain.ErrNotFound
}

// AddMapping stores a new mapping.
func (s *ServiceStore) AddMapping(_ context.Context, m *domain.DocumentMapping) (*domain.DocumentMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.mappings {
		existing := s.mappings[id]
		if existing.ServiceID == m.ServiceID && existing.Provider == m.Provider && existing.Location == m.Location {
			return nil, domain.ErrConflict
		}
	}

	s.nextMappingID++
	stored := *m
	stored.ID = s.nextMappingID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
		stored.UpdatedAt = stored.CreatedAt
	}
	s.mappings[stored.ID] = stored
	return &stored, nil
}

// GetMappings returns a service's mappings, primary first.
func (s *ServiceStore) GetMappings(_ context.Context, serviceID int64) ([]domain.DocumentMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.DocumentMapping
	for id := range s.mappings {
		if s.mappings[id].ServiceID == serviceID {
			result = append(result, s.mappings[id])
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].IsPrimary != result[j].IsPrimary {
			return result[i].IsPrimary
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// GetPrimaryMapping returns the service's primary mapping.
func (s *ServiceStore) GetPrimaryMapping(_ context.Context, serviceID int64) (*domain.DocumentMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id := range s.mappings {
		m := s.mappings[id]
		if m.ServiceID == serviceID && m.IsPrimary {
			return &m, nil
		}
	}
	return nil, domain.ErrNotFound
}

// SetPrimaryMapping clears the current primary flag and sets it on the
// given mapping.
func (s *ServiceStore) SetPrimaryMapping(_ context.Context, serviceID, mappingID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.mappings[mappingID]
	if !ok || target.ServiceID != serviceID {
		return domain.ErrNotFound
	}

	for id := range s.mappings {
		m := s.mappings[id]
		if m.ServiceID != serviceID {
			continue
		}
		m.IsPrimary = id == mappingID
		s.mappings[id] = m
	}
	return nil
}

// RemoveMapping deletes by the uniqueness triple.
func (s *ServiceStore) RemoveMapping(_ context.Context, serviceID int64, provider, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.mappings {
		m := s.mappings[id]
		if m.ServiceID == serviceID && m.Provider == provider && m.Location == location {
			delete(s.mappings, id)
			return nil
		}
	}
	return domain.ErrNotFound
}

// LinkMappingFeature attaches a feature to the mapping with the given
// location, creating the mapping when it does not exist yet.
func (s *ServiceStore) LinkMappingFeature(_ context.Context, serviceID int64, location, featureID string) (*domain.DocumentMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.mappings {
		m := s.mappings[id]
		if m.ServiceID == serviceID && m.Location == location {
			m.FeatureID = featureID
			m.UpdatedAt = time.Now()
			s.mappings[id] = m
			return &m, nil
		}
	}

	s.nextMappingID++
	now := time.Now()
	m := domain.DocumentMapping{
		ID:        s.nextMappingID,
		ServiceID: serviceID,
		Provider:  "confluence",
		Location:  location,
		FeatureID: featureID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mappings[m.ID] = m
	return &m, nil
}

// GetMappingsForFeature returns mappings linked to a feature.
func (s *ServiceStore) GetMappingsForFeature(_ context.Context, featureID string) ([]domain.DocumentMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.DocumentMapping
	for id := range s.mappings {
		if s.mappings[id].FeatureID == featureID {
			result = append(result, s.mappings[id])
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
