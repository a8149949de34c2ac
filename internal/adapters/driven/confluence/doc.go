// Package confluence implements a document source backed by the
// Confluence Cloud REST API. Pages are listed with CQL queries scoped
// to a space key, fetched in storage format and converted to plain
// text before they enter the sync pipeline.
package confluence
