package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// Ensure GenerationStore implements the interfaces.
var (
	_ driven.GenerationStore = (*GenerationStore)(nil)
	_ driven.DiffCacheStore  = (*GenerationStore)(nil)
)

// GenerationStore is an in-memory implementation of
// driven.GenerationStore and driven.DiffCacheStore.
type GenerationStore struct {
	mu          sync.RWMutex
	records     []domain.GenerationRecord
	diffs       map[string]domain.DiffCacheEntry
	nextRecID   int64
	nextDiffID  int64
}

// NewGenerationStore creates a new in-memory generation store.
func NewGenerationStore() *GenerationStore {
	return &GenerationStore{
		diffs: make(map[string]domain.DiffCacheEntry),
	}
}

// RecordGeneration appends a record.
func (s *GenerationStore) RecordGeneration(_ context.Context, r *domain.GenerationRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRecID++
	stored := *r
	stored.ID = s.nextRecID
	s.records = append(s.records, stored)
	return stored.ID, nil
}

// RecentGenerations returns the newest records across all services.
func (s *GenerationStore) RecentGenerations(_ context.Context, limit int) ([]domain.GenerationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newestFirst(func(domain.GenerationRecord) bool { return true }, limit), nil
}

// GenerationsForService returns the newest records for one service.
func (s *GenerationStore) GenerationsForService(_ context.Context, serviceID int64, limit int) ([]domain.GenerationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newestFirst(func(r domain.GenerationRecord) bool { return r.ServiceID == serviceID }, limit), nil
}

// LatestSuccess returns the newest successful record for the triple.
func (s *GenerationStore) LatestSuccess(_ context.Context, serviceID int64, provider, sourceIdentifier string) (*domain.GenerationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := s.newestFirst(func(r domain.GenerationRecord) bool {
		return r.ServiceID == serviceID &&
			r.Provider == provider &&
			r.SourceIdentifier == sourceIdentifier &&
			r.Status == domain.StatusSuccess
	}, 1)
	if len(matches) == 0 {
		return nil, domain.ErrNotFound
	}
	return &matches[0], nil
}

// newestFirst filters and sorts records, newest first. Callers hold the lock.
func (s *GenerationStore) newestFirst(keep func(domain.GenerationRecord) bool, limit int) []domain.GenerationRecord {
	var result []domain.GenerationRecord
	for _, r := range s.records {
		if keep(r) {
			result = append(result, r)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

func diffKey(sourceType domain.SourceType, identifier, repoPath string) string {
	return string(sourceType) + "|" + identifier + "|" + repoPath
}

// GetCachedDiff retrieves an entry whether or not it has expired.
func (s *GenerationStore) GetCachedDiff(_ context.Context, sourceType domain.SourceType, identifier, repoPath string) (*domain.DiffCacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.diffs[diffKey(sourceType, identifier, repoPath)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

// PutCachedDiff stores or replaces an entry.
func (s *GenerationStore) PutCachedDiff(_ context.Context, entry *domain.DiffCacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextDiffID++
	stored := *entry
	stored.ID = s.nextDiffID
	s.diffs[diffKey(stored.SourceType, stored.SourceIdentifier, stored.RepositoryPath)] = stored
	return nil
}

// ClearExpiredDiffs drops entries past their TTL.
func (s *GenerationStore) ClearExpiredDiffs(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var removed int64
	for key := range s.diffs {
		entry := s.diffs[key]
		if entry.Expired(now) {
			delete(s.diffs, key)
			removed++
		}
	}
	return removed, nil
}

// ClearAllDiffs drops every entry.
func (s *GenerationStore) ClearAllDiffs(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := int64(len(s.diffs))
	s.diffs = make(map[string]domain.DiffCacheEntry)
	return removed, nil
}
