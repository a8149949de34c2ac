package driven

import "context"

// Embedder generates vector embeddings from text. Optional: when nil,
// semantic search and feature embeddings are disabled.
//
// Embedding calls are the dominant latency source in sync; callers
// bound them with a per-call timeout and treat a failure as failing
// that one document, not the batch.
type Embedder interface {
	// Embed generates a vector for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates vectors for several texts, more efficiently
	// than calling Embed in a loop where the provider supports it.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector size produced by the model.
	Dimensions() int

	// ModelName returns the embedding model identifier.
	ModelName() string

	// Close releases resources.
	Close() error
}
