package driven

import (
	"context"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

// DiffExtractor turns a change identifier into a structured diff.
// Implementations exist for the local git CLI and the GitHub API.
type DiffExtractor interface {
	// SourceType returns the change kind this extractor handles.
	SourceType() domain.SourceType

	// Extract produces the structured diff for the request.
	Extract(ctx context.Context, req domain.ExtractParams) (*domain.Diff, error)
}
