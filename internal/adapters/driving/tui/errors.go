package tui

import "errors"

// ErrMissingSearcher is returned when the search service is not provided.
var ErrMissingSearcher = errors.New("tui: search service is required")
