package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
	"github.com/docfold/docfold-cli/internal/core/ports/driving"
	"github.com/docfold/docfold-cli/internal/logger"
)

var _ driving.Mappings = (*MappingService)(nil)

// MappingService manages the registry of services and their links to
// documentation locations.
type MappingService struct {
	services driven.ServiceStore
	mappings driven.MappingStore
	now      func() time.Time
}

// NewMappingService creates a mapping service.
func NewMappingService(services driven.ServiceStore, mappings driven.MappingStore) *MappingService {
	return &MappingService{
		services: services,
		mappings: mappings,
		now:      time.Now,
	}
}

// AddService registers a service by name.
func (m *MappingService) AddService(ctx context.Context, name, path, description string) (*domain.Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: service name is required", domain.ErrInvalidInput)
	}

	svc, err := m.services.CreateService(ctx, name, path, description)
	if err != nil {
		return nil, err
	}

	logger.Info("Registered service %q", name)
	return svc, nil
}

// RemoveService deletes a service. Mappings and features cascade in
// the store.
func (m *MappingService) RemoveService(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: service name is required", domain.ErrInvalidInput)
	}
	return m.services.DeleteService(ctx, name)
}

// ListServices returns all registered services.
func (m *MappingService) ListServices(ctx context.Context) ([]domain.Service, error) {
	return m.services.ListServices(ctx)
}

// AddMapping links a service to a documentation location. The
// (service, provider, location) triple must be unique.
func (m *MappingService) AddMapping(ctx context.Context, serviceName, provider, location string, opts domain.MappingOptions) (*domain.DocumentMapping, error) {
	serviceName = strings.TrimSpace(serviceName)
	provider = strings.TrimSpace(provider)
	location = strings.TrimSpace(location)
	if serviceName == "" || provider == "" || location == "" {
		return nil, fmt.Errorf("%w: service, provider, and location are required", domain.ErrInvalidInput)
	}

	svc, err := m.services.GetService(ctx, serviceName)
	if err != nil {
		return nil, fmt.Errorf("service %q: %w", serviceName, err)
	}

	now := m.now()
	mapping := &domain.DocumentMapping{
		ServiceID: svc.ID,
		Provider:  provider,
		Location:  location,
		Title:     opts.Title,
		Section:   opts.Section,
		IsPrimary: opts.IsPrimary,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := m.mappings.AddMapping(ctx, mapping)
	if err != nil {
		return nil, err
	}

	// A mapping flagged primary displaces any previous primary.
	if created.IsPrimary {
		if err := m.mappings.SetPrimaryMapping(ctx, svc.ID, created.ID); err != nil {
			return nil, fmt.Errorf("set primary: %w", err)
		}
	}

	logger.Info("Mapped %s:%s to service %q", provider, location, serviceName)
	return created, nil
}

// GetMappings returns all mappings for a service, primary first.
func (m *MappingService) GetMappings(ctx context.Context, serviceName string) ([]domain.DocumentMapping, error) {
	svc, err := m.services.GetService(ctx, strings.TrimSpace(serviceName))
	if err != nil {
		return nil, fmt.Errorf("service %q: %w", serviceName, err)
	}
	return m.mappings.GetMappings(ctx, svc.ID)
}

// RemoveMapping removes one mapping by its uniqueness triple.
func (m *MappingService) RemoveMapping(ctx context.Context, serviceName, provider, location string) error {
	svc, err := m.services.GetService(ctx, strings.TrimSpace(serviceName))
	if err != nil {
		return fmt.Errorf("service %q: %w", serviceName, err)
	}
	return m.mappings.RemoveMapping(ctx, svc.ID, provider, location)
}

// SetPrimary marks one mapping as the service's main page, clearing the
// flag from any other mapping of the service.
func (m *MappingService) SetPrimary(ctx context.Context, serviceName string, mappingID int64) error {
	svc, err := m.services.GetService(ctx, strings.TrimSpace(serviceName))
	if err != nil {
		return fmt.Errorf("service %q: %w", serviceName, err)
	}
	return m.mappings.SetPrimaryMapping(ctx, svc.ID, mappingID)
}
