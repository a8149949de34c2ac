package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

func TestParseIdentifier(t *testing.T) {
	owner, repo, number, err := parseIdentifier("acme/resto-service#42")
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "resto-service", repo)
	assert.Equal(t, 42, number)
}

func TestParseIdentifier_Invalid(t *testing.T) {
	cases := []string{
		"",
		"acme/resto-service",
		"acme#42",
		"/repo#42",
		"acme/repo#",
		"acme/repo#zero",
		"acme/repo#-1",
	}
	for _, identifier := range cases {
		_, _, _, err := parseIdentifier(identifier)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "identifier %q", identifier)
	}
}

func TestExtractor_SourceType(t *testing.T) {
	assert.Equal(t, domain.SourcePR, NewExtractorWithClient(nil).SourceType())
}
