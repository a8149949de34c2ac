package domain

import "time"

// Service represents a code service or project tracked by docfold.
// It is the root of the knowledge graph: deleting a service cascades
// to its mappings and features.
type Service struct {
	// ID is the database identifier.
	ID int64

	// Name is the unique service name.
	Name string

	// Path is the repository path on disk, if known.
	Path string

	// Description is a free-form summary.
	Description string

	// CreatedAt is when the service was registered.
	CreatedAt time.Time

	// UpdatedAt is when the service record was last modified.
	UpdatedAt time.Time
}

// MappingOptions carries the optional fields of a new mapping.
type MappingOptions struct {
	// Title is the human-readable document title.
	Title string

	// Section is an optional section anchor.
	Section string

	// IsPrimary marks the mapping as the service's main page.
	IsPrimary bool
}

// DocumentMapping links a service to a documentation location at a provider.
// The (service, provider, location) triple is unique.
type DocumentMapping struct {
	// ID is the database identifier.
	ID int64

	// ServiceID is the owning service.
	ServiceID int64

	// Provider identifies the documentation backend (confluence, gdrive, markdown).
	Provider string

	// Location is the provider-specific address (page id, file path, URL).
	Location string

	// Title is the human-readable document title, if known.
	Title string

	// Section is an optional section anchor within the document.
	Section string

	// IsPrimary marks the service's main documentation page.
	// The flag is advisory and maintained application-side.
	IsPrimary bool

	// FeatureID links this documentation location to a feature, if mapped.
	FeatureID string

	// CreatedAt is when the mapping was added.
	CreatedAt time.Time

	// UpdatedAt is when the mapping was last modified.
	UpdatedAt time.Time
}
