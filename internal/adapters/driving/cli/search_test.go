package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

func rankedResults() []domain.RankedResult {
	return []domain.RankedResult{
		{
			Kind:            domain.ResultKindDocument,
			ID:              "doc-1",
			Title:           "Payment API",
			Location:        "https://wiki.example.com/x/12345",
			Team:            "payments",
			Score:           0.91,
			RelatedServices: []string{"billing-svc"},
		},
		{
			Kind:  domain.ResultKindFeature,
			ID:    "feat-1",
			Title: "Refunds",
			Score: 0.72,
		},
	}
}

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_Short(t *testing.T) {
	assert.Equal(t, "Search the knowledge cache", searchCmd.Short)
}

func TestSearchCmd_HasFilterFlags(t *testing.T) {
	assert.NotNil(t, searchCmd.Flags().Lookup("limit"))
	assert.NotNil(t, searchCmd.Flags().Lookup("team"))
	assert.NotNil(t, searchCmd.Flags().Lookup("tag"))
	assert.NotNil(t, searchCmd.Flags().Lookup("provider"))
	assert.NotNil(t, searchCmd.Flags().Lookup("json"))
}

func TestSearchCmd_PrintsResults(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	mock := &mockSearcher{results: rankedResults()}
	searchService = mock

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "payment api"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, []string{"payment api"}, mock.queries)
	assert.Contains(t, buf.String(), "[1] Payment API (document, 0.91)")
	assert.Contains(t, buf.String(), "[2] Refunds (feature, 0.72)")
	assert.Contains(t, buf.String(), "Services: billing-svc")
}

func TestSearchCmd_PassesFilters(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	mock := &mockSearcher{}
	searchService = mock

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "q", "--team", "payments", "--tag", "api", "--provider", "confluence", "-n", "5"})
	defer func() {
		rootCmd.SetArgs(nil)
		searchLimit = 10
		searchTeam = ""
		searchTags = nil
		searchProvider = ""
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	require.Len(t, mock.opts, 1)
	assert.Equal(t, 5, mock.opts[0].Limit)
	assert.Equal(t, "payments", mock.opts[0].Filters.Team)
	assert.Equal(t, []string{"api"}, mock.opts[0].Filters.Tags)
	assert.Equal(t, "confluence", mock.opts[0].Filters.Provider)
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	searchService = &mockSearcher{results: rankedResults()}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "q", "--json"})
	defer func() {
		rootCmd.SetArgs(nil)
		searchJSON = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)

	var decoded []domain.RankedResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded, 2)
	assert.Equal(t, "doc-1", decoded[0].ID)
}

func TestSearchCmd_NoResults(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "nothing matches"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No results found.")
}

func TestSearchCmd_ServiceNotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	searchService = nil

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"search", "q"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "search service not configured")
}

func TestSearchCmd_ServiceError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	searchService = &mockSearcher{err: errors.New("index unavailable")}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"search", "q"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "index unavailable")
}
