package driven

import (
	"context"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

// ServiceStore persists services, the graph roots.
type ServiceStore interface {
	// CreateService registers a new service. Returns domain.ErrConflict
	// if the name is taken.
	CreateService(ctx context.Context, name, path, description string) (*domain.Service, error)

	// GetService retrieves a service by name.
	// Returns domain.ErrNotFound if absent.
	GetService(ctx context.Context, name string) (*domain.Service, error)

	// GetServiceByID retrieves a service by database id.
	GetServiceByID(ctx context.Context, id int64) (*domain.Service, error)

	// ListServices returns all services ordered by name.
	ListServices(ctx context.Context) ([]domain.Service, error)

	// UpdateService updates path and description.
	UpdateService(ctx context.Context, id int64, path, description string) error

	// DeleteService removes a service. Mappings and features cascade.
	// Returns domain.ErrNotFound if absent.
	DeleteService(ctx context.Context, name string) error
}

// MappingStore persists service-to-documentation-location records.
type MappingStore interface {
	// AddMapping stores a new mapping. Returns domain.ErrConflict when
	// (service, provider, location) already exists.
	AddMapping(ctx context.Context, m *domain.DocumentMapping) (*domain.DocumentMapping, error)

	// GetMappings returns all mappings for a service, primary first.
	GetMappings(ctx context.Context, serviceID int64) ([]domain.DocumentMapping, error)

	// GetPrimaryMapping returns the service's primary mapping.
	// Returns domain.ErrNotFound when none is marked primary.
	GetPrimaryMapping(ctx context.Context, serviceID int64) (*domain.DocumentMapping, error)

	// SetPrimaryMapping clears the service's current primary flag and
	// sets it on the given mapping.
	SetPrimaryMapping(ctx context.Context, serviceID, mappingID int64) error

	// RemoveMapping deletes by the uniqueness triple.
	// Returns domain.ErrNotFound if absent.
	RemoveMapping(ctx context.Context, serviceID int64, provider, location string) error

	// LinkMappingFeature attaches a feature to the mapping with the given
	// location under the service, creating the mapping if needed.
	LinkMappingFeature(ctx context.Context, serviceID int64, location, featureID string) (*domain.DocumentMapping, error)

	// GetMappingsForFeature returns mappings linked to a feature.
	GetMappingsForFeature(ctx context.Context, featureID string) ([]domain.DocumentMapping, error)
}
