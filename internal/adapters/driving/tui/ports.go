// Package tui provides the interactive terminal search interface for
// docfold, built on bubbletea's Elm architecture.
package tui

import (
	"github.com/docfold/docfold-cli/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces the TUI needs.
// A single injection point keeps the wiring in one place.
type Ports struct {
	// Search answers hybrid queries. Required.
	Search driving.Searcher

	// Documents reads cached document content for the detail pane.
	// Optional; without it results cannot be opened.
	Documents driving.Documents
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearcher
	}
	return nil
}
