package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsCmd_Use(t *testing.T) {
	assert.Equal(t, "stats", statsCmd.Use)
}

func TestStatsCmd_PrintsCounts(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	statsFn = func(_ context.Context) (map[string]int64, error) {
		return map[string]int64{
			"documents": 120,
			"features":  14,
			"services":  3,
		}, nil
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"stats"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Cache statistics:")
	assert.Contains(t, out, "documents")
	assert.Contains(t, out, "120")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("documents")),
		bytes.Index(buf.Bytes(), []byte("services")))
}

func TestStatsCmd_Error(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	statsFn = func(_ context.Context) (map[string]int64, error) {
		return nil, errors.New("database locked")
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"stats"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database locked")
}

func TestStatsCmd_NotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	statsFn = nil

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"stats"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "stats not configured")
}
