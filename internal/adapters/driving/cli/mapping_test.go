package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

func TestMappingCmd_Use(t *testing.T) {
	assert.Equal(t, "mapping", mappingCmd.Use)
}

func TestMappingCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, sub := range mappingCmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "add")
	assert.Contains(t, names, "list")
	assert.Contains(t, names, "remove")
	assert.Contains(t, names, "set-primary")
}

func TestMappingAddCmd_AddsMapping(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"mapping", "add", "billing-svc", "confluence", "12345", "--title", "Billing docs"})
	defer func() {
		rootCmd.SetArgs(nil)
		mappingTitle = ""
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Mapping 7 added: billing-svc -> confluence/12345")
}

func TestMappingListCmd_MarksPrimary(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	mappingService = &mockMappings{mappings: []domain.DocumentMapping{
		{ID: 1, Provider: "confluence", Location: "12345", IsPrimary: true, Title: "Main page"},
		{ID: 2, Provider: "gdrive", Location: "abc"},
	}}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"mapping", "list", "billing-svc"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "* [1] confluence: 12345")
	assert.Contains(t, buf.String(), "  [2] gdrive: abc")
	assert.Contains(t, buf.String(), "Total: 2 mappings")
}

func TestMappingListCmd_Empty(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"mapping", "list", "billing-svc"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No mappings for service: billing-svc")
}

func TestMappingRemoveCmd_RemovesMapping(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	mock := &mockMappings{}
	mappingService = mock

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"mapping", "remove", "billing-svc", "confluence", "12345"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, []string{"billing-svc/confluence/12345"}, mock.removed)
}

func TestMappingSetPrimaryCmd_SetsPrimary(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	mock := &mockMappings{}
	mappingService = mock

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"mapping", "set-primary", "billing-svc", "7"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, []int64{7}, mock.primary)
	assert.Contains(t, buf.String(), "Mapping 7 is now the primary page for billing-svc.")
}

func TestMappingSetPrimaryCmd_InvalidID(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"mapping", "set-primary", "billing-svc", "abc"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid mapping id")
}

func TestMappingCmd_ServiceNotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mappingService = nil

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"mapping", "list", "billing-svc"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "mapping service not configured")
}
