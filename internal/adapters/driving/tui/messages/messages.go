// Package messages defines bubbletea message types for the TUI.
// Messages represent events that flow through the Elm architecture.
package messages

import (
	"github.com/docfold/docfold-cli/internal/core/domain"
)

// SearchCompleted carries ranked results back to the model.
type SearchCompleted struct {
	Query   string
	Results []domain.RankedResult
	Err     error
}

// DocumentLoaded carries a fetched document for the content pane.
type DocumentLoaded struct {
	Document *domain.Document
	Err      error
}
