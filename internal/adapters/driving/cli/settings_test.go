package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsCmd_Use(t *testing.T) {
	assert.Equal(t, "settings", settingsCmd.Use)
}

func TestSettingsShowCmd_PrintsSortedKeys(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	store := newMockConfigStore()
	store.values["search.semantic_weight"] = 0.6
	store.values["confluence.base_url"] = "https://wiki.example.com"
	configStore = store

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"settings", "show"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "confluence.base_url = https://wiki.example.com")
	assert.Contains(t, out, "search.semantic_weight = 0.6")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("confluence.base_url")),
		bytes.Index(buf.Bytes(), []byte("search.semantic_weight")))
}

func TestSettingsShowCmd_MasksSecrets(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	store := newMockConfigStore()
	store.values["confluence.api_token"] = "supersecretvalue99"
	configStore = store

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"settings", "show"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "supe...ue99")
	assert.NotContains(t, buf.String(), "supersecretvalue99")
}

func TestSettingsGetCmd_PrintsValue(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	store := newMockConfigStore()
	store.values["embedding.provider"] = "ollama"
	configStore = store

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"settings", "get", "embedding.provider"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "embedding.provider = ollama")
}

func TestSettingsGetCmd_UnsetKey(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"settings", "get", "missing.key"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.key is not set")
}

func TestSettingsSetCmd_StoresTypedValues(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	store := newMockConfigStore()
	configStore = store

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	rootCmd.SetArgs([]string{"settings", "set", "search.cache_ttl", "300"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, int64(300), store.values["search.cache_ttl"])

	rootCmd.SetArgs([]string{"settings", "set", "search.semantic_weight", "0.6"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, 0.6, store.values["search.semantic_weight"])

	rootCmd.SetArgs([]string{"settings", "set", "sync.enabled", "true"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, true, store.values["sync.enabled"])

	rootCmd.SetArgs([]string{"settings", "set", "embedding.provider", "ollama"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "ollama", store.values["embedding.provider"])
}

func TestSettingsCmd_StoreNotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	configStore = nil

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"settings", "show"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "config store not configured")
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, false, parseValue("false"))
	assert.Equal(t, int64(42), parseValue("42"))
	assert.Equal(t, 0.4, parseValue("0.4"))
	assert.Equal(t, "ollama", parseValue("ollama"))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "abcd...wxyz", maskSecret("abcdefstuvwxyz"))
}
