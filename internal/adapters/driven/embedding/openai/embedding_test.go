package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorContains(t, err, "API key")
}

func TestNew_ModelDimensions(t *testing.T) {
	embedder, err := New(Config{APIKey: "sk-test", Model: "text-embedding-3-large"})
	require.NoError(t, err)
	assert.Equal(t, 3072, embedder.Dimensions())

	embedder, err = New(Config{APIKey: "sk-test", Model: "custom-model"})
	require.NoError(t, err)
	assert.Equal(t, 1536, embedder.Dimensions())
}

func TestEmbedder_EmbedBatch_OrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		// Out-of-order response data must land at the right indexes.
		_, _ = w.Write([]byte(`{"data":[
			{"embedding":[0.3,0.4],"index":1},
			{"embedding":[0.1,0.2],"index":0}
		]}`))
	}))
	defer srv.Close()

	embedder, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	vectors, err := embedder.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
	assert.Equal(t, []float32{0.3, 0.4}, vectors[1])
}

func TestEmbedder_EmbedBatch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid api key", "type": "auth"},
		})
	}))
	defer srv.Close()

	embedder, err := New(Config{APIKey: "sk-bad", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = embedder.EmbedBatch(context.Background(), []string{"a"})
	assert.ErrorContains(t, err, "invalid api key")
}

func TestEmbedder_EmbedBatch_Empty(t *testing.T) {
	embedder, err := New(Config{APIKey: "sk-test"})
	require.NoError(t, err)

	vectors, err := embedder.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}
