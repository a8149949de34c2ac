package domain

import "time"

// SyncMode selects how much of a scope is reconciled.
type SyncMode string

// Available sync modes.
const (
	// SyncModeFull refetches every document in the scope.
	SyncModeFull SyncMode = "full"

	// SyncModeIncremental fetches only documents modified after the cursor.
	SyncModeIncremental SyncMode = "incremental"
)

// SyncState records sync progress for a scope. One row per scope,
// advanced only after a sync batch fully commits.
type SyncState struct {
	// Scope is the remote partition (space key, folder id).
	Scope string

	// Cursor is an opaque progress marker. For time-based sources it is
	// the RFC3339Nano timestamp of the newest committed remote update.
	Cursor string

	// LastSyncedAt is when the last batch committed.
	LastSyncedAt time.Time
}

// SyncFailure describes a single document that could not be synced.
// The identifier carries enough context to retry the failing unit
// without re-running the batch.
type SyncFailure struct {
	// SourceID is the remote identifier of the failing document.
	SourceID string

	// Reason is the failure description.
	Reason string
}

// SyncReport summarises the outcome of one sync call.
type SyncReport struct {
	// Scope is the synchronized scope.
	Scope string

	// Mode is the mode the sync ran in.
	Mode SyncMode

	// Added counts newly cached documents.
	Added int

	// Updated counts documents whose content changed.
	Updated int

	// Removed counts documents tombstoned because the remote no longer
	// lists them.
	Removed int

	// Unchanged counts documents skipped because their hash matched.
	Unchanged int

	// Failed lists documents that could not be processed. Failures are
	// non-fatal; the next sync retries them from the same cursor.
	Failed []SyncFailure

	// Duration is the wall-clock time of the sync.
	Duration time.Duration
}
