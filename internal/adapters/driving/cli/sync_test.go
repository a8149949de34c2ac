package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

func TestSyncCmd_Use(t *testing.T) {
	assert.Equal(t, "sync [scope]", syncCmd.Use)
}

func TestSyncCmd_Short(t *testing.T) {
	assert.Equal(t, "Synchronise documents for a scope", syncCmd.Short)
}

func TestSyncCmd_HasFullFlag(t *testing.T) {
	assert.NotNil(t, syncCmd.Flags().Lookup("full"))
}

func TestSyncCmd_Incremental(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	mock := &mockSyncer{report: &domain.SyncReport{
		Scope:     "ENG",
		Mode:      domain.SyncModeIncremental,
		Added:     3,
		Updated:   2,
		Unchanged: 10,
		Duration:  1500 * time.Millisecond,
	}}
	syncService = mock

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"sync", "ENG"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, []string{"ENG"}, mock.scopes)
	assert.Equal(t, []domain.SyncMode{domain.SyncModeIncremental}, mock.modes)
	assert.Contains(t, buf.String(), "Added:     3")
	assert.Contains(t, buf.String(), "Unchanged: 10")
}

func TestSyncCmd_FullFlag(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	mock := &mockSyncer{}
	syncService = mock

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"sync", "ENG", "--full"})
	defer func() {
		rootCmd.SetArgs(nil)
		syncFull = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, []domain.SyncMode{domain.SyncModeFull}, mock.modes)
}

func TestSyncCmd_ReportsFailures(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	syncService = &mockSyncer{report: &domain.SyncReport{
		Scope: "ENG",
		Failed: []domain.SyncFailure{
			{SourceID: "12345", Reason: "remote returned 500"},
		},
	}}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"sync", "ENG"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "12345: remote returned 500")
	assert.Contains(t, buf.String(), "retried on the next sync")
}

func TestSyncCmd_ServiceNotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	syncService = nil

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"sync", "ENG"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sync service not configured")
}

func TestSyncCmd_ServiceError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	syncService = &mockSyncer{err: errors.New("source unreachable")}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"sync", "ENG"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "source unreachable")
}
