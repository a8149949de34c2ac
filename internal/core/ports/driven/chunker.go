package driven

import "github.com/docfold/docfold-cli/internal/core/domain"

// Chunker splits a document's content into bounded spans for embedding
// and retrieval.
type Chunker interface {
	// Split returns the document's chunks in order. Empty content
	// produces no chunks.
	Split(doc *domain.Document) []domain.Chunk
}
