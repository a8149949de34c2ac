package driven

import (
	"context"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

// DocumentStore reads the cached documents and chunks.
// Writes flow through SyncBatchStore so a sync batch commits atomically.
type DocumentStore interface {
	// GetDocument retrieves a document by local id.
	// Returns domain.ErrNotFound if absent.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentByURL retrieves a document by its remote URL.
	GetDocumentByURL(ctx context.Context, url string) (*domain.Document, error)

	// ListDocuments returns document summaries matching the filters,
	// newest first.
	ListDocuments(ctx context.Context, filters domain.SearchFilters) ([]domain.Document, error)

	// GetChunks returns a document's chunks ordered by ordinal.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// ScopeInventory returns source id -> content hash for every cached
	// document in the scope. The sync engine diffs this against the
	// remote listing to find no-ops and tombstones.
	ScopeInventory(ctx context.Context, scope string) (map[string]string, error)
}

// DocumentUpsert pairs a document with its freshly computed chunks.
type DocumentUpsert struct {
	// Document is the row to insert or replace.
	Document domain.Document

	// Chunks replace the document's previous chunks entirely.
	Chunks []domain.Chunk
}

// SyncBatch is the atomic unit of cache mutation. Either everything in
// the batch commits, including the cursor advance and search cache
// invalidation, or nothing does.
type SyncBatch struct {
	// Scope is the partition being reconciled.
	Scope string

	// Upserts are new or changed documents with their chunks.
	Upserts []DocumentUpsert

	// RemoveSourceIDs tombstones documents absent from the remote listing.
	RemoveSourceIDs []string

	// NewState is the advanced cursor, written last inside the transaction.
	NewState domain.SyncState
}

// SyncBatchStore applies sync batches and tracks per-scope progress.
type SyncBatchStore interface {
	// GetSyncState retrieves the scope's cursor.
	// Returns domain.ErrNotFound before the first successful sync.
	GetSyncState(ctx context.Context, scope string) (*domain.SyncState, error)

	// ApplySyncBatch applies the batch in one transaction: upserts
	// documents, replaces chunks, updates the full-text index, removes
	// tombstoned documents, advances the cursor, and invalidates the
	// search cache.
	ApplySyncBatch(ctx context.Context, batch SyncBatch) error
}
