// Package mcp exposes the docfold knowledge cache over the Model
// Context Protocol so AI assistants can search documentation, inspect
// the feature graph, and trigger syncs.
package mcp

import "errors"

// ErrMissingSearcher is returned when the search service is not provided.
var ErrMissingSearcher = errors.New("mcp: search service is required")
