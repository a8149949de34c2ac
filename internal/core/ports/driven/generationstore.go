package driven

import (
	"context"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

// GenerationStore is the append-only audit trail of generation runs.
type GenerationStore interface {
	// RecordGeneration appends a record. Records are never mutated.
	RecordGeneration(ctx context.Context, r *domain.GenerationRecord) (int64, error)

	// RecentGenerations returns the newest records across all services.
	RecentGenerations(ctx context.Context, limit int) ([]domain.GenerationRecord, error)

	// GenerationsForService returns the newest records for one service.
	GenerationsForService(ctx context.Context, serviceID int64, limit int) ([]domain.GenerationRecord, error)

	// LatestSuccess returns the most recent successful record for the
	// (service, provider, source identifier) triple. The caller compares
	// content hashes to decide whether regeneration is a no-op.
	// Returns domain.ErrNotFound when no successful run exists.
	LatestSuccess(ctx context.Context, serviceID int64, provider, sourceIdentifier string) (*domain.GenerationRecord, error)
}

// DiffCacheStore memoizes extracted diffs within a TTL window.
type DiffCacheStore interface {
	// GetCachedDiff retrieves an entry, expired or not; callers judge
	// expiry against their own clock. Returns domain.ErrNotFound on miss.
	GetCachedDiff(ctx context.Context, sourceType domain.SourceType, identifier, repoPath string) (*domain.DiffCacheEntry, error)

	// PutCachedDiff stores or replaces an entry for the uniqueness triple.
	PutCachedDiff(ctx context.Context, entry *domain.DiffCacheEntry) error

	// ClearExpiredDiffs drops entries past their TTL.
	ClearExpiredDiffs(ctx context.Context) (int64, error)

	// ClearAllDiffs drops every entry.
	ClearAllDiffs(ctx context.Context) (int64, error)
}
