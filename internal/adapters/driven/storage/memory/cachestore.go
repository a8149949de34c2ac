package memory

import (
	"context"
	"sync"
	"time"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// Ensure SearchCacheStore implements the interface.
var _ driven.SearchCacheStore = (*SearchCacheStore)(nil)

// SearchCacheStore is an in-memory implementation of
// driven.SearchCacheStore.
type SearchCacheStore struct {
	mu      sync.RWMutex
	entries map[string]domain.CachedSearch
}

// NewSearchCacheStore creates a new in-memory search cache.
func NewSearchCacheStore() *SearchCacheStore {
	return &SearchCacheStore{
		entries: make(map[string]domain.CachedSearch),
	}
}

// GetCachedSearch retrieves a cache entry.
func (s *SearchCacheStore) GetCachedSearch(_ context.Context, queryHash string) (*domain.CachedSearch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[queryHash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

// PutCachedSearch stores or replaces an entry.
func (s *SearchCacheStore) PutCachedSearch(_ context.Context, entry *domain.CachedSearch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.QueryHash] = *entry
	return nil
}

// InvalidateSearchCache drops all entries.
func (s *SearchCacheStore) InvalidateSearchCache(_ context.Context) error {
	s.invalidateAll()
	return nil
}

// DeleteExpiredSearchCache drops entries past their TTL.
func (s *SearchCacheStore) DeleteExpiredSearchCache(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var removed int64
	for hash := range s.entries {
		entry := s.entries[hash]
		if entry.Expired(now) {
			delete(s.entries, hash)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of cached entries.
func (s *SearchCacheStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *SearchCacheStore) invalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]domain.CachedSearch)
}
