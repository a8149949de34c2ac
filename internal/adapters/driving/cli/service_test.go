package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

func TestServiceCmd_Use(t *testing.T) {
	assert.Equal(t, "service", serviceCmd.Use)
}

func TestServiceAddCmd_RegistersService(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"service", "add", "billing-svc", "--description", "Billing backend"})
	defer func() {
		rootCmd.SetArgs(nil)
		serviceDescription = ""
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Service billing-svc registered (id 1).")
}

func TestServiceAddCmd_RequiresNameOrDetect(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"service", "add"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "a service name or --detect is required")
}

func TestServiceRemoveCmd_RemovesService(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	mock := &mockMappings{}
	mappingService = mock

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"service", "remove", "billing-svc"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, []string{"billing-svc"}, mock.removed)
	assert.Contains(t, buf.String(), "Service billing-svc removed.")
}

func TestServiceListCmd_PrintsServices(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	mappingService = &mockMappings{services: []domain.Service{
		{ID: 1, Name: "billing-svc", Path: "/srv/billing", Description: "Billing backend"},
		{ID: 2, Name: "auth-svc"},
	}}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"service", "list"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "billing-svc")
	assert.Contains(t, buf.String(), "Path: /srv/billing")
	assert.Contains(t, buf.String(), "Total: 2 services")
}

func TestServiceListCmd_Empty(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"service", "list"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No services registered.")
}

func TestServiceCmd_ServiceNotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mappingService = nil

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"service", "list"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "mapping service not configured")
}
