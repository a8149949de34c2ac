package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
	"github.com/docfold/docfold-cli/internal/core/ports/driving"
	"github.com/docfold/docfold-cli/internal/logger"
)

// Ensure SyncEngine implements the interface.
var _ driving.Syncer = (*SyncEngine)(nil)

// Embedding bounds. One slow document must not stall the batch.
const (
	embedTimeout  = 30 * time.Second
	embedAttempts = 3
	embedBackoff  = 500 * time.Millisecond
)

// SyncEngine reconciles the local knowledge cache against a document
// source, one scope at a time. Syncs of the same scope are serialized;
// different scopes run in parallel.
type SyncEngine struct {
	source     driven.DocumentSource
	docStore   driven.DocumentStore
	batchStore driven.SyncBatchStore
	chunker    driven.Chunker
	embedder   driven.Embedder // optional
	now        func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-scope
}

// NewSyncEngine creates a sync engine. The embedder is optional; when
// nil, chunks are stored without vectors and semantic search is
// unavailable for the scope's documents.
func NewSyncEngine(
	source driven.DocumentSource,
	docStore driven.DocumentStore,
	batchStore driven.SyncBatchStore,
	chunker driven.Chunker,
	embedder driven.Embedder,
) *SyncEngine {
	return &SyncEngine{
		source:     source,
		docStore:   docStore,
		batchStore: batchStore,
		chunker:    chunker,
		embedder:   embedder,
		now:        time.Now,
		locks:      make(map[string]*sync.Mutex),
	}
}

// SetClock overrides the engine's clock. Useful for tests.
func (e *SyncEngine) SetClock(now func() time.Time) {
	e.now = now
}

// scopeLock returns the mutex serializing syncs of one scope.
func (e *SyncEngine) scopeLock(scope string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.locks[scope]
	if !ok {
		l = &sync.Mutex{}
		e.locks[scope] = l
	}
	return l
}

// Sync brings the cache into agreement with the remote scope.
//
// The batch is applied in a single transaction: a crash mid-batch
// leaves the cache in its prior consistent state and the cursor
// unchanged. A fetch error aborts the batch before anything is
// written, guaranteeing at-least-once re-delivery on the next call.
// Concurrent calls for the same scope do not queue; the second call
// fails fast with ErrSyncInProgress.
func (e *SyncEngine) Sync(ctx context.Context, scope string, mode domain.SyncMode) (*domain.SyncReport, error) {
	if scope == "" {
		return nil, fmt.Errorf("%w: scope must not be empty", domain.ErrInvalidInput)
	}
	if e.source == nil {
		return nil, domain.ErrSourceUnavailable
	}

	lock := e.scopeLock(scope)
	if !lock.TryLock() {
		return nil, fmt.Errorf("%w: scope %s", domain.ErrSyncInProgress, scope)
	}
	defer lock.Unlock()

	started := e.now()
	report := &domain.SyncReport{Scope: scope, Mode: mode}

	logger.Section("Sync")
	logger.Info("Syncing scope %s (%s)", scope, mode)

	// 1. Read the cursor. Absent or full mode means fetch everything.
	var since time.Time
	state, err := e.batchStore.GetSyncState(ctx, scope)
	switch {
	case err == nil && mode == domain.SyncModeIncremental:
		since = parseCursor(state.Cursor)
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("get sync state: %w", err)
	}

	// Local inventory for hash comparison and tombstone detection.
	inventory, err := e.docStore.ScopeInventory(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("scope inventory: %w", err)
	}

	// 2. Fetch remote items modified after the cursor.
	docsCh, errsCh := e.source.FetchSince(ctx, scope, since)

	var (
		upserts       []driven.DocumentUpsert
		maxSeen       time.Time
		earliestRetry time.Time
	)

	for doc := range docsCh {
		if doc.UpdatedAt.After(maxSeen) {
			maxSeen = doc.UpdatedAt
		}

		hash := domain.HashContent(doc.Content)
		prior, known := inventory[doc.SourceID]

		// 3. Unchanged content is a no-op: chunks keep their ids and
		// timestamps.
		if known && prior == hash {
			report.Unchanged++
			continue
		}

		up, err := e.buildUpsert(ctx, scope, doc, hash)
		if err != nil {
			logger.Warn("Document %s failed: %v", doc.SourceID, err)
			report.Failed = append(report.Failed, domain.SyncFailure{
				SourceID: doc.SourceID,
				Reason:   err.Error(),
			})
			if earliestRetry.IsZero() || doc.UpdatedAt.Before(earliestRetry) {
				earliestRetry = doc.UpdatedAt
			}
			continue
		}

		upserts = append(upserts, *up)
		if known {
			report.Updated++
		} else {
			report.Added++
		}
	}

	// A remote fetch error aborts the whole batch without advancing the
	// cursor. Non-fatal to the process: the next call retries.
	if fetchErr := <-errsCh; fetchErr != nil {
		report.Duration = e.now().Sub(started)
		return report, fmt.Errorf("%w: scope %s: %v", domain.ErrSyncFailed, scope, fetchErr)
	}

	// 4. Remote is authoritative: tombstone local documents the remote
	// no longer lists.
	removals, err := e.findRemovals(ctx, scope, inventory)
	if err != nil {
		report.Duration = e.now().Sub(started)
		return report, fmt.Errorf("%w: scope %s: %v", domain.ErrSyncFailed, scope, err)
	}
	report.Removed = len(removals)

	// 5. Advance the cursor only with the committed batch. If documents
	// failed, park the cursor just before the earliest failure so the
	// next incremental sync re-delivers them.
	newCursor := maxSeen
	if !earliestRetry.IsZero() {
		newCursor = earliestRetry.Add(-time.Nanosecond)
	}
	if newCursor.IsZero() && state != nil {
		newCursor = parseCursor(state.Cursor)
	}

	batch := driven.SyncBatch{
		Scope:           scope,
		Upserts:         upserts,
		RemoveSourceIDs: removals,
		NewState: domain.SyncState{
			Scope:        scope,
			Cursor:       formatCursor(newCursor),
			LastSyncedAt: e.now(),
		},
	}

	// 6. One transaction: upserts, chunk replacement, index updates,
	// tombstones, cursor advance, and search cache invalidation.
	if err := e.batchStore.ApplySyncBatch(ctx, batch); err != nil {
		report.Duration = e.now().Sub(started)
		return report, fmt.Errorf("apply sync batch: %w", err)
	}

	report.Duration = e.now().Sub(started)
	logger.Info("Sync complete: +%d ~%d -%d =%d, %d failed",
		report.Added, report.Updated, report.Removed, report.Unchanged, len(report.Failed))
	return report, nil
}

// buildUpsert chunks and embeds one remote document.
func (e *SyncEngine) buildUpsert(ctx context.Context, scope string, rd domain.RemoteDocument, hash string) (*driven.DocumentUpsert, error) {
	doc := domain.Document{
		ID:          uuid.New().String(),
		SourceID:    rd.SourceID,
		Provider:    e.source.Provider(),
		Scope:       scope,
		Title:       rd.Title,
		URL:         rd.URL,
		Content:     rd.Content,
		ContentHash: hash,
		Team:        rd.Team,
		Tags:        rd.Tags,
		UpdatedAt:   rd.UpdatedAt,
		FetchedAt:   e.now(),
	}

	chunks := e.chunker.Split(&doc)

	if e.embedder != nil && len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i := range chunks {
			texts[i] = chunks[i].Text
		}

		var vectors [][]float32
		err := withRetries(ctx, embedAttempts, embedBackoff, func(ctx context.Context) error {
			embedCtx, cancel := context.WithTimeout(ctx, embedTimeout)
			defer cancel()

			var embedErr error
			vectors, embedErr = e.embedder.EmbedBatch(embedCtx, texts)
			return embedErr
		})
		if err != nil {
			return nil, fmt.Errorf("embed document: %w", err)
		}
		if len(vectors) != len(chunks) {
			return nil, fmt.Errorf("embed document: got %d vectors for %d chunks", len(vectors), len(chunks))
		}

		for i := range chunks {
			chunks[i].Embedding = vectors[i]
		}
	}

	return &driven.DocumentUpsert{Document: doc, Chunks: chunks}, nil
}

// findRemovals lists cached source ids the remote no longer has.
func (e *SyncEngine) findRemovals(ctx context.Context, scope string, inventory map[string]string) ([]string, error) {
	if len(inventory) == 0 {
		return nil, nil
	}

	remoteIDs, err := e.source.ListSourceIDs(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list remote ids: %w", err)
	}

	remote := make(map[string]struct{}, len(remoteIDs))
	for _, id := range remoteIDs {
		remote[id] = struct{}{}
	}

	var removals []string
	for sourceID := range inventory {
		if _, ok := remote[sourceID]; !ok {
			removals = append(removals, sourceID)
		}
	}
	return removals, nil
}

// parseCursor decodes a stored cursor. Malformed or empty cursors fall
// back to the zero time, degrading to a full fetch.
func parseCursor(cursor string) time.Time {
	if cursor == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, cursor)
	if err != nil {
		logger.Warn("Malformed cursor %q, falling back to full fetch", cursor)
		return time.Time{}
	}
	return t
}

// formatCursor encodes a cursor for storage.
func formatCursor(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
