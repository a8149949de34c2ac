package domain

import "time"

// Document is the cached copy of a remote documentation page.
// Rows are owned exclusively by the sync engine: they are disposable
// and fully reconstructible by re-syncing the scope.
type Document struct {
	// ID is the local identifier.
	ID string

	// SourceID is the remote identifier (page id) at the provider.
	SourceID string

	// Provider identifies the document source (confluence, gdrive).
	Provider string

	// Scope is the remote partition this document belongs to (space key,
	// folder id). Scopes synchronize independently.
	Scope string

	// Title is the document title.
	Title string

	// URL is the canonical remote location.
	URL string

	// Content is the full text content.
	Content string

	// ContentHash is the SHA-256 hex digest of Content. Sync compares
	// hashes to skip unchanged documents.
	ContentHash string

	// Team is the owning team, if the source exposes one.
	Team string

	// Tags are labels attached to the document at the source.
	Tags []string

	// UpdatedAt is the remote modification time.
	UpdatedAt time.Time

	// FetchedAt is when the local cache last fetched this document.
	FetchedAt time.Time
}

// Chunk is a bounded span of a document's text used as the unit of
// embedding and retrieval. Chunks are derived data: they are replaced
// whenever the parent document's content hash changes.
type Chunk struct {
	// ID is the unique chunk identifier.
	ID string

	// DocumentID links to the parent document.
	DocumentID string

	// Ordinal is the position within the document.
	Ordinal int

	// Text is the chunk content.
	Text string

	// Embedding is the vector representation for semantic search.
	// Nil when no embedding service is configured.
	Embedding []float32
}

// RemoteDocument is a document listing entry produced by a document source.
// It is the wire-level shape before caching.
type RemoteDocument struct {
	// SourceID is the provider's identifier for the page.
	SourceID string

	// Title is the page title.
	Title string

	// URL is the canonical remote location.
	URL string

	// Content is the full text content.
	Content string

	// Team is the owning team, if exposed by the source.
	Team string

	// Tags are source-side labels.
	Tags []string

	// UpdatedAt is the remote modification time.
	UpdatedAt time.Time
}
