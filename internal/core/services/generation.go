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

var _ driving.Generation = (*GenerationLedger)(nil)

// DefaultDiffTTL bounds how long an extracted diff is served from cache.
const DefaultDiffTTL = time.Hour

// GenerationLedger is the bookkeeping boundary for the external
// documentation generation pipeline: it memoizes diff extraction and
// keeps the append-only audit trail of generation runs.
type GenerationLedger struct {
	store      driven.GenerationStore
	diffCache  driven.DiffCacheStore
	services   driven.ServiceStore
	extractors map[domain.SourceType]driven.DiffExtractor
	diffTTL    time.Duration
	now        func() time.Time
}

// NewGenerationLedger creates a ledger. Extractors are registered by
// the source type they handle; requests for an unregistered type fail
// with domain.ErrInvalidInput.
func NewGenerationLedger(
	store driven.GenerationStore,
	diffCache driven.DiffCacheStore,
	services driven.ServiceStore,
	extractors []driven.DiffExtractor,
) *GenerationLedger {
	byType := make(map[domain.SourceType]driven.DiffExtractor, len(extractors))
	for _, e := range extractors {
		byType[e.SourceType()] = e
	}

	return &GenerationLedger{
		store:      store,
		diffCache:  diffCache,
		services:   services,
		extractors: byType,
		diffTTL:    DefaultDiffTTL,
		now:        time.Now,
	}
}

// SetClock overrides the ledger's clock. Useful for tests.
func (l *GenerationLedger) SetClock(now func() time.Time) {
	l.now = now
}

// SetDiffTTL overrides the diff memoization window.
func (l *GenerationLedger) SetDiffTTL(ttl time.Duration) {
	l.diffTTL = ttl
}

// ExtractDiff returns the structured diff for a change. The boolean
// reports whether the diff was served from cache. When extraction
// fails but an expired cached diff exists, that diff is returned
// alongside ErrStale and the caller decides whether to use it.
func (l *GenerationLedger) ExtractDiff(ctx context.Context, req domain.ExtractParams) (*domain.Diff, bool, error) {
	if !req.SourceType.IsValid() {
		return nil, false, fmt.Errorf("%w: unknown source type %q", domain.ErrInvalidInput, req.SourceType)
	}
	if req.SourceType != domain.SourceStaged && strings.TrimSpace(req.Identifier) == "" {
		return nil, false, fmt.Errorf("%w: identifier is required for %s diffs", domain.ErrInvalidInput, req.SourceType)
	}

	// Staged trees change between invocations, so they bypass the cache.
	cacheable := req.SourceType != domain.SourceStaged

	var expired *domain.DiffCacheEntry
	if cacheable && l.diffCache != nil {
		entry, err := l.diffCache.GetCachedDiff(ctx, req.SourceType, req.Identifier, req.RepositoryPath)
		if err == nil {
			if !entry.Expired(l.now()) {
				logger.Debug("Diff cache hit for %s %s", req.SourceType, req.Identifier)
				return &entry.Diff, true, nil
			}
			expired = entry
		}
	}

	extractor, ok := l.extractors[req.SourceType]
	if !ok {
		return nil, false, fmt.Errorf("%w: no extractor for source type %q", domain.ErrInvalidInput, req.SourceType)
	}

	diff, err := extractor.Extract(ctx, req)
	if err != nil {
		// An expired entry still beats no answer when the source is
		// down. ErrStale tells the caller what it is getting.
		if expired != nil {
			logger.Warn("Extraction failed, serving expired diff for %s %s: %v", req.SourceType, req.Identifier, err)
			return &expired.Diff, true, fmt.Errorf("%w: %s %s", domain.ErrStale, req.SourceType, req.Identifier)
		}
		return nil, false, fmt.Errorf("extract %s %s: %w", req.SourceType, req.Identifier, err)
	}

	if cacheable && l.diffCache != nil {
		entry := &domain.DiffCacheEntry{
			SourceType:       req.SourceType,
			SourceIdentifier: req.Identifier,
			RepositoryPath:   req.RepositoryPath,
			Diff:             *diff,
			ExpiresAt:        l.now().Add(l.diffTTL),
			CreatedAt:        l.now(),
		}
		if err := l.diffCache.PutCachedDiff(ctx, entry); err != nil {
			logger.Warn("Diff cache write failed: %v", err)
		}
	}

	return diff, false, nil
}

// RecordGeneration appends an audit record.
func (l *GenerationLedger) RecordGeneration(ctx context.Context, rec domain.GenerationRecord) (int64, error) {
	if rec.Provider == "" || rec.DocumentRef == "" {
		return 0, fmt.Errorf("%w: provider and document reference are required", domain.ErrInvalidInput)
	}
	switch rec.Action {
	case domain.ActionCreate, domain.ActionUpdate, domain.ActionUpdateSection:
	default:
		return 0, fmt.Errorf("%w: unknown action %q", domain.ErrInvalidInput, rec.Action)
	}
	switch rec.Status {
	case domain.StatusSuccess, domain.StatusFailed, domain.StatusPending:
	default:
		return 0, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, rec.Status)
	}
	if rec.SourceType != "" && !rec.SourceType.IsValid() {
		return 0, fmt.Errorf("%w: unknown source type %q", domain.ErrInvalidInput, rec.SourceType)
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = l.now()
	}
	return l.store.RecordGeneration(ctx, &rec)
}

// LatestSuccess returns the newest successful record for the
// (service, provider, source identifier) triple.
func (l *GenerationLedger) LatestSuccess(ctx context.Context, serviceName, provider, sourceIdentifier string) (*domain.GenerationRecord, error) {
	svc, err := l.services.GetService(ctx, strings.TrimSpace(serviceName))
	if err != nil {
		return nil, fmt.Errorf("service %q: %w", serviceName, err)
	}
	return l.store.LatestSuccess(ctx, svc.ID, provider, sourceIdentifier)
}

// History lists recent generation records, newest first. An empty
// service name lists across all services.
func (l *GenerationLedger) History(ctx context.Context, serviceName string, limit int) ([]domain.GenerationRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	serviceName = strings.TrimSpace(serviceName)
	if serviceName == "" {
		return l.store.RecentGenerations(ctx, limit)
	}

	svc, err := l.services.GetService(ctx, serviceName)
	if err != nil {
		return nil, fmt.Errorf("service %q: %w", serviceName, err)
	}
	return l.store.GenerationsForService(ctx, svc.ID, limit)
}
