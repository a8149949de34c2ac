package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

func TestFeatureCmd_Use(t *testing.T) {
	assert.Equal(t, "feature", featureCmd.Use)
}

func TestFeatureCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, sub := range featureCmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "add")
	assert.Contains(t, names, "relate")
	assert.Contains(t, names, "map")
	assert.Contains(t, names, "get")
	assert.Contains(t, names, "list")
}

func TestFeatureAddCmd_CreatesFeature(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"feature", "add", "billing-svc", "refunds", "--type", "api"})
	defer func() {
		rootCmd.SetArgs(nil)
		featureType = "other"
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Feature refunds created (id feat-1).")
}

func TestFeatureRelateCmd_AddsRelation(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"feature", "relate", "feat-1", "feat-2", "--type", "depends_on"})
	defer func() {
		rootCmd.SetArgs(nil)
		relationType = string(domain.RelationRelatesTo)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Relation added: feat-1 -[depends_on]-> feat-2")
}

func TestFeatureRelateCmd_RejectsUnknownType(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"feature", "relate", "feat-1", "feat-2", "--type", "bogus"})
	defer func() {
		rootCmd.SetArgs(nil)
		relationType = string(domain.RelationRelatesTo)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown relation type "bogus"`)
}

func TestFeatureMapCmd_LinksDocument(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	graphService = &mockGraph{mapping: &domain.DocumentMapping{
		ID:       3,
		Provider: "confluence",
		Location: "12345",
	}}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"feature", "map", "feat-1", "doc-1"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Feature feat-1 linked to confluence/12345 (mapping 3).")
}

func TestFeatureGetCmd_PrintsNeighbourhood(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	graphService = &mockGraph{detail: &domain.FeatureDetail{
		Feature: domain.Feature{
			ID:          "feat-1",
			Name:        "refunds",
			Type:        domain.ParseFeatureType("api"),
			Description: "Refund processing",
		},
		ServiceName: "billing-svc",
		Parents:     []domain.Feature{{ID: "feat-0", Name: "payments"}},
		Children:    []domain.Feature{{ID: "feat-2", Name: "partial-refunds"}},
		Documents: []domain.DocumentMapping{
			{ID: 4, Provider: "confluence", Location: "12345"},
		},
	}}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"feature", "get", "feat-1"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Feature: refunds")
	assert.Contains(t, out, "Service:   billing-svc")
	assert.Contains(t, out, "payments (feat-0)")
	assert.Contains(t, out, "partial-refunds (feat-2)")
	assert.Contains(t, out, "confluence: 12345")
}

func TestFeatureListCmd_PrintsFeatures(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	graphService = &mockGraph{features: []domain.Feature{
		{ID: "feat-1", Name: "refunds", Type: domain.ParseFeatureType("api")},
	}}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"feature", "list"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "refunds (feat-1, api)")
	assert.Contains(t, buf.String(), "Total: 1 features")
}

func TestFeatureCmd_ServiceNotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	graphService = nil

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"feature", "list"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "graph service not configured")
}
