package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interfaces.
var (
	_ driven.DocumentStore  = (*DocumentStore)(nil)
	_ driven.SyncBatchStore = (*DocumentStore)(nil)
)

// DocumentStore is an in-memory implementation of driven.DocumentStore
// and driven.SyncBatchStore. Batches apply under one lock, so readers
// never observe a half-applied sync.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document // by local id
	bySource  map[string]string          // source id -> local id
	chunks    map[string][]domain.Chunk  // by local id
	states    map[string]domain.SyncState

	cache *SearchCacheStore // invalidated on batch apply, optional
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		bySource:  make(map[string]string),
		chunks:    make(map[string][]domain.Chunk),
		states:    make(map[string]domain.SyncState),
	}
}

// AttachSearchCache wires the cache that sync batches invalidate.
func (s *DocumentStore) AttachSearchCache(cache *SearchCacheStore) {
	s.cache = cache
}

// GetDocument retrieves a document by local id.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetDocumentByURL retrieves a document by its remote URL.
func (s *DocumentStore) GetDocumentByURL(_ context.Context, url string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id := range s.documents {
		if s.documents[id].URL == url {
			doc := s.documents[id]
			return &doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListDocuments returns documents matching the filters, newest first.
func (s *DocumentStore) ListDocuments(_ context.Context, filters domain.SearchFilters) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Document
	for id := range s.documents {
		doc := s.documents[id]
		if matchesFilters(doc, filters) {
			result = append(result, doc)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

// GetChunks retrieves a document's chunks ordered by ordinal.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks := s.chunks[documentID]
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out, nil
}

// ScopeInventory returns source id -> content hash for a scope.
func (s *DocumentStore) ScopeInventory(_ context.Context, scope string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inventory := make(map[string]string)
	for id := range s.documents {
		doc := s.documents[id]
		if doc.Scope == scope {
			inventory[doc.SourceID] = doc.ContentHash
		}
	}
	return inventory, nil
}

// GetSyncState retrieves the scope's cursor.
func (s *DocumentStore) GetSyncState(_ context.Context, scope string) (*domain.SyncState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[scope]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &state, nil
}

// ApplySyncBatch applies the batch under a single lock: upserts,
// tombstones, cursor advance, and search cache invalidation together.
func (s *DocumentStore) ApplySyncBatch(_ context.Context, batch driven.SyncBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, up := range batch.Upserts {
		doc := up.Document

		// Replace any previous version of the same remote document.
		if oldID, ok := s.bySource[doc.SourceID]; ok && oldID != doc.ID {
			delete(s.documents, oldID)
			delete(s.chunks, oldID)
		}

		s.documents[doc.ID] = doc
		s.bySource[doc.SourceID] = doc.ID
		s.chunks[doc.ID] = append([]domain.Chunk(nil), up.Chunks...)
	}

	for _, sourceID := range batch.RemoveSourceIDs {
		id, ok := s.bySource[sourceID]
		if !ok {
			continue
		}
		delete(s.documents, id)
		delete(s.chunks, id)
		delete(s.bySource, sourceID)
	}

	s.states[batch.Scope] = batch.NewState

	if s.cache != nil {
		s.cache.invalidateAll()
	}
	return nil
}

func matchesFilters(doc domain.Document, filters domain.SearchFilters) bool {
	if filters.Team != "" && doc.Team != filters.Team {
		return false
	}
	if filters.Provider != "" && doc.Provider != filters.Provider {
		return false
	}
	for _, want := range filters.Tags {
		found := false
		for _, tag := range doc.Tags {
			if tag == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
