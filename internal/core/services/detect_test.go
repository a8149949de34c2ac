package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectServiceName_GoMod(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"),
		[]byte("module github.com/acme/resto-service\n\ngo 1.24\n"), 0o644))

	assert.Equal(t, "resto-service", DetectServiceName(dir))
}

func TestDetectServiceName_PackageJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"),
		[]byte(`{"name": "@acme/resto-web", "version": "1.0.0"}`), 0o644))

	assert.Equal(t, "resto-web", DetectServiceName(dir))
}

func TestDetectServiceName_GoModWinsOverPackageJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"),
		[]byte("module example.com/backend\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"),
		[]byte(`{"name": "frontend"}`), 0o644))

	assert.Equal(t, "backend", DetectServiceName(dir))
}

func TestDetectServiceName_FallsBackToDirName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "resto-service")
	require.NoError(t, os.Mkdir(dir, 0o755))

	assert.Equal(t, "resto-service", DetectServiceName(dir))
}

func TestDetectServiceName_MalformedPackageJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fallback-dir")
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"),
		[]byte("{not json"), 0o644))

	assert.Equal(t, "fallback-dir", DetectServiceName(dir))
}
