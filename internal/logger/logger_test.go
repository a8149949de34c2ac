package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// capture redirects output to a buffer and restores state afterwards.
func capture(t *testing.T, verbose bool) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verbose)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)

	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLevels_PrefixAndFormat(t *testing.T) {
	buf := capture(t, true)

	Debug("fetched %d documents", 3)
	Info("scope %s synchronised", "ENG")
	Warn("embedding failed for %s", "doc-1")

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] fetched 3 documents\n")
	assert.Contains(t, out, "[INFO] scope ENG synchronised\n")
	assert.Contains(t, out, "[WARN] embedding failed for doc-1\n")
}

func TestSection_Header(t *testing.T) {
	buf := capture(t, true)

	// The search pipeline wraps each ranking signal in a section.
	Section("keyword search")
	Debug("10 candidates")

	assert.Contains(t, buf.String(), "\n=== keyword search ===\n")
	assert.Contains(t, buf.String(), "[DEBUG] 10 candidates")
}

func TestQuietByDefault(t *testing.T) {
	buf := capture(t, false)

	Debug("hidden")
	Info("hidden")
	Warn("hidden")
	Section("hidden")

	assert.Empty(t, buf.String())
}
