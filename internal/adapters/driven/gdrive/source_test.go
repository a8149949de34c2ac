package gdrive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFolderQuery(t *testing.T) {
	assert.Equal(t, "'folder-1' in parents and trashed = false", folderQuery("folder-1"))
	assert.Equal(t, "'folder-1' in parents and trashed = false", folderQuery("  folder-1  "))
}

func TestIsTextMIME(t *testing.T) {
	assert.True(t, isTextMIME("text/plain"))
	assert.True(t, isTextMIME("text/markdown"))
	assert.True(t, isTextMIME("application/json"))
	assert.False(t, isTextMIME("application/pdf"))
	assert.False(t, isTextMIME("image/png"))
}

func TestSource_Provider(t *testing.T) {
	source := NewSourceWithService(nil, Config{Team: "platform"})
	assert.Equal(t, "gdrive", source.Provider())
	assert.Equal(t, "platform", source.team)
}
