package domain

import "time"

// GenerationAction describes what a generation run did to a document.
type GenerationAction string

// Generation actions.
const (
	ActionCreate        GenerationAction = "create"
	ActionUpdate        GenerationAction = "update"
	ActionUpdateSection GenerationAction = "update_section"
)

// GenerationStatus is the outcome of a generation run.
type GenerationStatus string

// Generation statuses.
const (
	StatusSuccess GenerationStatus = "success"
	StatusFailed  GenerationStatus = "failed"
	StatusPending GenerationStatus = "pending"
)

// SourceType identifies where a diff came from.
type SourceType string

// Diff source types.
const (
	SourceCommit SourceType = "commit"
	SourceStaged SourceType = "staged"
	SourcePR     SourceType = "pr"
	SourceRange  SourceType = "range"
)

// IsValid reports whether the source type is recognised.
func (t SourceType) IsValid() bool {
	switch t {
	case SourceCommit, SourceStaged, SourcePR, SourceRange:
		return true
	default:
		return false
	}
}

// GenerationRecord is one entry in the append-only generation audit trail.
// Records are never mutated after insert.
type GenerationRecord struct {
	// ID is the database identifier.
	ID int64

	// ServiceID is the service the documentation belongs to, if known.
	ServiceID int64

	// Provider is the documentation backend written to.
	Provider string

	// DocumentRef is the provider-side document reference (id or URL).
	DocumentRef string

	// Action is what happened to the document.
	Action GenerationAction

	// SourceType is the kind of change that triggered generation.
	SourceType SourceType

	// SourceIdentifier names the change (commit SHA, PR number, "staged").
	SourceIdentifier string

	// ContentHash is the hash of the generated content. A regeneration
	// whose hash matches the latest successful record for the same
	// (service, provider, source identifier) is a no-op for the caller.
	ContentHash string

	// Status is the run outcome.
	Status GenerationStatus

	// Error carries the failure message when Status is failed.
	Error string

	// CreatedAt is when the record was inserted.
	CreatedAt time.Time
}

// ExtractParams identifies a change to extract a diff for.
type ExtractParams struct {
	// SourceType is the change kind (commit, staged, pr, range).
	SourceType SourceType

	// Identifier names the change: a commit SHA, "owner/repo#123" for a
	// PR, "from..to" for a range, empty for staged changes.
	Identifier string

	// RepositoryPath is the local repository, where applicable.
	RepositoryPath string
}

// DiffFile is one changed file within a diff.
type DiffFile struct {
	// Path is the file path relative to the repository root.
	Path string `json:"path"`

	// Status is the change kind (added, modified, deleted, renamed).
	Status string `json:"status"`

	// Additions counts added lines.
	Additions int `json:"additions"`

	// Deletions counts deleted lines.
	Deletions int `json:"deletions"`
}

// Diff is a structured source-control change set, the input record the
// generation pipeline consumes.
type Diff struct {
	// SourceType is where the diff came from.
	SourceType SourceType `json:"source_type"`

	// SourceIdentifier names the change.
	SourceIdentifier string `json:"source_identifier"`

	// RepositoryPath is the local repository path, if any.
	RepositoryPath string `json:"repository_path,omitempty"`

	// Files lists the changed files.
	Files []DiffFile `json:"files"`

	// Additions is the total added line count.
	Additions int `json:"additions"`

	// Deletions is the total deleted line count.
	Deletions int `json:"deletions"`

	// Summary is a short human-readable description of the change.
	Summary string `json:"summary"`
}

// DiffCacheEntry memoizes one extracted diff within a TTL window, keyed
// uniquely by (source type, identifier, repository path).
type DiffCacheEntry struct {
	// ID is the database identifier.
	ID int64

	// SourceType is the diff source kind.
	SourceType SourceType

	// SourceIdentifier names the change.
	SourceIdentifier string

	// RepositoryPath is the local repository path, empty for remote diffs.
	RepositoryPath string

	// Diff is the cached payload.
	Diff Diff

	// ExpiresAt bounds the idempotency window. Zero means no expiry.
	ExpiresAt time.Time

	// CreatedAt is when the entry was cached.
	CreatedAt time.Time
}

// Expired reports whether the entry is past its TTL at the given time.
func (e *DiffCacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}
