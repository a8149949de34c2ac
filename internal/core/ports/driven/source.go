package driven

import (
	"context"
	"time"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

// DocumentSource lists and fetches documents from a remote provider
// (a wiki space, a drive folder). Implementations handle pagination,
// rate limiting and retries internally; every call honours the context
// deadline.
type DocumentSource interface {
	// Provider returns the source type identifier (confluence, gdrive).
	Provider() string

	// Validate checks connectivity and credentials with a lightweight
	// request.
	Validate(ctx context.Context) error

	// FetchSince streams documents in the scope modified after since.
	// A zero since means fetch everything. The document channel closes
	// when the listing is exhausted; a fetch error is sent on the error
	// channel and ends the stream.
	FetchSince(ctx context.Context, scope string, since time.Time) (<-chan domain.RemoteDocument, <-chan error)

	// ListSourceIDs returns the ids of every document currently in the
	// scope. The sync engine uses it to tombstone local documents the
	// remote no longer lists.
	ListSourceIDs(ctx context.Context, scope string) ([]string, error)
}
