package mcp

import (
	"context"

	"github.com/docfold/docfold-cli/internal/core/ports/driving"
)

// StatsFunc reports row counts of the main cache tables.
type StatsFunc func(ctx context.Context) (map[string]int64, error)

// Ports aggregates the driving port interfaces the MCP server exposes.
// A single injection point keeps the wiring in one place.
type Ports struct {
	// Search answers hybrid queries. Required.
	Search driving.Searcher

	// Sync reconciles scopes against the remote source.
	Sync driving.Syncer

	// Documents reads the cached document store.
	Documents driving.Documents

	// Graph manages features and their relations.
	Graph driving.Graph

	// Mappings manages services and documentation mappings.
	Mappings driving.Mappings

	// Stats reports cache table counts, surfaced as a resource.
	Stats StatsFunc
}

// Validate ensures all required ports are set. Everything except
// Search degrades to a tool-level error when absent.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearcher
	}
	return nil
}
