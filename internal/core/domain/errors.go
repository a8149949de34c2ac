package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness invariant was violated
	// (duplicate mapping, feature, or relation).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCycle indicates a feature relation would create a cycle
	// in a transitive relation type such as depends_on.
	ErrCycle = errors.New("relation would create a cycle")

	// ErrSyncFailed indicates a remote fetch or auth error during sync.
	// Sync failures are retryable; the cursor is left unmoved.
	ErrSyncFailed = errors.New("sync failed")

	// ErrSyncInProgress indicates a sync for the same scope is already running.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrStale indicates a served cache entry is past its soft expiry.
	// Informational; callers may still use the result.
	ErrStale = errors.New("stale cache entry")

	// ErrSourceUnavailable indicates the document source is not configured
	// or unreachable.
	ErrSourceUnavailable = errors.New("document source unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Semantic search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
