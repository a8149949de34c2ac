// Package github extracts pull request diffs through the GitHub API.
package github

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.DiffExtractor = (*Extractor)(nil)

const (
	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// ProactiveRate throttles below the authenticated API limit.
	ProactiveRate = 1.2

	// filesPerPage is the PR file listing page size.
	filesPerPage = 100
)

// Extractor extracts pull request diffs using go-github.
type Extractor struct {
	gh     *gh.Client
	bucket *rate.Limiter
}

// NewExtractor creates a PR diff extractor authenticated with a token.
func NewExtractor(ctx context.Context, token string) *Extractor {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = DefaultTimeout

	return NewExtractorWithClient(gh.NewClient(tc))
}

// NewExtractorWithClient wraps an existing go-github client. Used by
// tests and callers that manage authentication themselves.
func NewExtractorWithClient(client *gh.Client) *Extractor {
	return &Extractor{
		gh:     client,
		bucket: rate.NewLimiter(rate.Limit(ProactiveRate), 1),
	}
}

// SourceType returns the change kind this extractor handles.
func (e *Extractor) SourceType() domain.SourceType {
	return domain.SourcePR
}

// Extract produces the structured diff for an "owner/repo#number" pull
// request reference.
func (e *Extractor) Extract(ctx context.Context, req domain.ExtractParams) (*domain.Diff, error) {
	owner, repo, number, err := parseIdentifier(req.Identifier)
	if err != nil {
		return nil, err
	}

	if err := e.bucket.Wait(ctx); err != nil {
		return nil, err
	}
	pr, _, err := e.gh.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("get pull request: %w", err)
	}

	diff := &domain.Diff{
		SourceType:       domain.SourcePR,
		SourceIdentifier: req.Identifier,
		Summary:          pr.GetTitle(),
	}

	opts := &gh.ListOptions{PerPage: filesPerPage}
	for {
		if err := e.bucket.Wait(ctx); err != nil {
			return nil, err
		}
		files, resp, err := e.gh.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("list pull request files: %w", err)
		}

		for _, file := range files {
			diff.Files = append(diff.Files, domain.DiffFile{
				Path:      file.GetFilename(),
				Status:    file.GetStatus(),
				Additions: file.GetAdditions(),
				Deletions: file.GetDeletions(),
			})
			diff.Additions += file.GetAdditions()
			diff.Deletions += file.GetDeletions()
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return diff, nil
}

// parseIdentifier splits "owner/repo#number".
func parseIdentifier(identifier string) (owner, repo string, number int, err error) {
	ref, numPart, ok := strings.Cut(strings.TrimSpace(identifier), "#")
	if !ok {
		return "", "", 0, fmt.Errorf("%w: pull request reference must be owner/repo#number", domain.ErrInvalidInput)
	}

	owner, repo, ok = strings.Cut(ref, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", 0, fmt.Errorf("%w: pull request reference must be owner/repo#number", domain.ErrInvalidInput)
	}

	number, err = strconv.Atoi(numPart)
	if err != nil || number <= 0 {
		return "", "", 0, fmt.Errorf("%w: invalid pull request number %q", domain.ErrInvalidInput, numPart)
	}
	return owner, repo, number, nil
}
