package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// Ensure FeatureStore implements the interface.
var _ driven.FeatureStore = (*FeatureStore)(nil)

// FeatureStore is an in-memory implementation of driven.FeatureStore.
type FeatureStore struct {
	mu          sync.RWMutex
	features    map[string]domain.Feature
	relations   map[int64]domain.FeatureRelation
	entries     map[string][]domain.SearchIndexEntry
	nextRelID   int64
	nextEntryID int64
}

// NewFeatureStore creates a new in-memory feature store.
func NewFeatureStore() *FeatureStore {
	return &FeatureStore{
		features:  make(map[string]domain.Feature),
		relations: make(map[int64]domain.FeatureRelation),
		entries:   make(map[string][]domain.SearchIndexEntry),
	}
}

// CreateFeature stores a new feature.
func (s *FeatureStore) CreateFeature(_ context.Context, f *domain.Feature) (*domain.Feature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.features {
		existing := s.features[id]
		if existing.ServiceID == f.ServiceID && existing.Name == f.Name {
			return nil, domain.ErrConflict
		}
	}

	s.features[f.ID] = *f
	stored := s.features[f.ID]
	return &stored, nil
}

// GetFeature retrieves a feature by id.
func (s *FeatureStore) GetFeature(_ context.Context, id string) (*domain.Feature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.features[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &f, nil
}

// ListFeatures returns features filtered by service id and team tag.
func (s *FeatureStore) ListFeatures(_ context.Context, serviceID int64, team string) ([]domain.Feature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Feature
	for id := range s.features {
		f := s.features[id]
		if serviceID != 0 && f.ServiceID != serviceID {
			continue
		}
		if team != "" && !hasTag(f.Tags, team) {
			continue
		}
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// UpdateRelevance persists a recomputed relevance score.
func (s *FeatureStore) UpdateRelevance(_ context.Context, featureID string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.features[featureID]
	if !ok {
		return domain.ErrNotFound
	}
	f.RelevanceScore = score
	s.features[featureID] = f
	return nil
}

// AddRelation stores a directed edge.
func (s *FeatureStore) AddRelation(_ context.Context, r *domain.FeatureRelation) (*domain.FeatureRelation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.relations {
		existing := s.relations[id]
		if existing.ParentID == r.ParentID && existing.ChildID == r.ChildID && existing.Type == r.Type {
			return nil, domain.ErrConflict
		}
	}

	s.nextRelID++
	stored := *r
	stored.ID = s.nextRelID
	s.relations[stored.ID] = stored
	return &stored, nil
}

// Parents returns features with an edge into the given feature.
func (s *FeatureStore) Parents(_ context.Context, featureID string) ([]domain.Feature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Feature
	for id := range s.relations {
		r := s.relations[id]
		if r.ChildID != featureID {
			continue
		}
		if f, ok := s.features[r.ParentID]; ok {
			result = append(result, f)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Children returns features the given feature has an edge to.
func (s *FeatureStore) Children(_ context.Context, featureID string) ([]domain.Feature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Feature
	for id := range s.relations {
		r := s.relations[id]
		if r.ParentID != featureID {
			continue
		}
		if f, ok := s.features[r.ChildID]; ok {
			result = append(result, f)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ChildIDs returns edge targets restricted to one relation type.
func (s *FeatureStore) ChildIDs(_ context.Context, featureID string, relType domain.RelationType) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []string
	for id := range s.relations {
		r := s.relations[id]
		if r.ParentID == featureID && r.Type == relType {
			result = append(result, r.ChildID)
		}
	}
	return result, nil
}

// RelationCounts returns, per feature id, the number of edges touching it.
func (s *FeatureStore) RelationCounts(_ context.Context, featureIDs []string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(featureIDs))
	for _, id := range featureIDs {
		wanted[id] = true
	}

	counts := make(map[string]int)
	for id := range s.relations {
		r := s.relations[id]
		if wanted[r.ParentID] {
			counts[r.ParentID]++
		}
		if wanted[r.ChildID] {
			counts[r.ChildID]++
		}
	}
	return counts, nil
}

// AddSearchEntry stores denormalised searchable text for a feature.
func (s *FeatureStore) AddSearchEntry(_ context.Context, e *domain.SearchIndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextEntryID++
	stored := *e
	stored.ID = s.nextEntryID
	s.entries[stored.FeatureID] = append(s.entries[stored.FeatureID], stored)
	e.ID = stored.ID
	return nil
}

// SearchEntries returns the index entries for a feature.
func (s *FeatureStore) SearchEntries(_ context.Context, featureID string) ([]domain.SearchIndexEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.entries[featureID]
	out := make([]domain.SearchIndexEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func hasTag(tags []string, want string) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}
