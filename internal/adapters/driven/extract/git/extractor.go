// Package git extracts structured diffs from a local repository using
// the git CLI. One extractor exists per change kind (commit, staged,
// range); they share the same command runner.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

// Ensure the extractors implement the interface.
var (
	_ driven.DiffExtractor = (*CommitExtractor)(nil)
	_ driven.DiffExtractor = (*StagedExtractor)(nil)
	_ driven.DiffExtractor = (*RangeExtractor)(nil)
)

// runner executes git commands in a repository.
type runner struct{}

func (runner) run(ctx context.Context, repoPath string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if repoPath != "" {
		cmd.Dir = repoPath
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", args[0], msg)
	}
	return stdout.String(), nil
}

// CommitExtractor extracts the diff of a single commit.
type CommitExtractor struct {
	git runner
}

// NewCommitExtractor creates a commit diff extractor.
func NewCommitExtractor() *CommitExtractor {
	return &CommitExtractor{}
}

// SourceType returns the change kind this extractor handles.
func (e *CommitExtractor) SourceType() domain.SourceType {
	return domain.SourceCommit
}

// Extract produces the structured diff for one commit.
func (e *CommitExtractor) Extract(ctx context.Context, req domain.ExtractParams) (*domain.Diff, error) {
	sha := strings.TrimSpace(req.Identifier)
	if sha == "" {
		return nil, fmt.Errorf("%w: commit sha required", domain.ErrInvalidInput)
	}

	summary, err := e.git.run(ctx, req.RepositoryPath, "show", "-s", "--format=%s", sha)
	if err != nil {
		return nil, err
	}

	numstat, err := e.git.run(ctx, req.RepositoryPath, "show", "--numstat", "--format=", sha)
	if err != nil {
		return nil, err
	}
	nameStatus, err := e.git.run(ctx, req.RepositoryPath, "show", "--name-status", "--format=", sha)
	if err != nil {
		return nil, err
	}

	diff := buildDiff(domain.SourceCommit, sha, req.RepositoryPath, numstat, nameStatus)
	diff.Summary = strings.TrimSpace(summary)
	return diff, nil
}

// StagedExtractor extracts the currently staged diff.
type StagedExtractor struct {
	git runner
}

// NewStagedExtractor creates a staged diff extractor.
func NewStagedExtractor() *StagedExtractor {
	return &StagedExtractor{}
}

// SourceType returns the change kind this extractor handles.
func (e *StagedExtractor) SourceType() domain.SourceType {
	return domain.SourceStaged
}

// Extract produces the structured diff of the index.
func (e *StagedExtractor) Extract(ctx context.Context, req domain.ExtractParams) (*domain.Diff, error) {
	numstat, err := e.git.run(ctx, req.RepositoryPath, "diff", "--cached", "--numstat")
	if err != nil {
		return nil, err
	}
	nameStatus, err := e.git.run(ctx, req.RepositoryPath, "diff", "--cached", "--name-status")
	if err != nil {
		return nil, err
	}

	diff := buildDiff(domain.SourceStaged, "staged", req.RepositoryPath, numstat, nameStatus)
	diff.Summary = "staged changes"
	return diff, nil
}

// RangeExtractor extracts the diff between two revisions.
type RangeExtractor struct {
	git runner
}

// NewRangeExtractor creates a revision range diff extractor.
func NewRangeExtractor() *RangeExtractor {
	return &RangeExtractor{}
}

// SourceType returns the change kind this extractor handles.
func (e *RangeExtractor) SourceType() domain.SourceType {
	return domain.SourceRange
}

// Extract produces the structured diff for a "from..to" range.
func (e *RangeExtractor) Extract(ctx context.Context, req domain.ExtractParams) (*domain.Diff, error) {
	rev := strings.TrimSpace(req.Identifier)
	if !strings.Contains(rev, "..") {
		return nil, fmt.Errorf("%w: range must be of the form from..to", domain.ErrInvalidInput)
	}

	numstat, err := e.git.run(ctx, req.RepositoryPath, "diff", "--numstat", rev)
	if err != nil {
		return nil, err
	}
	nameStatus, err := e.git.run(ctx, req.RepositoryPath, "diff", "--name-status", rev)
	if err != nil {
		return nil, err
	}

	diff := buildDiff(domain.SourceRange, rev, req.RepositoryPath, numstat, nameStatus)
	diff.Summary = "changes in " + rev
	return diff, nil
}

// buildDiff merges numstat line counts with name-status change kinds.
func buildDiff(sourceType domain.SourceType, identifier, repoPath, numstat, nameStatus string) *domain.Diff {
	statuses := parseNameStatus(nameStatus)

	diff := &domain.Diff{
		SourceType:       sourceType,
		SourceIdentifier: identifier,
		RepositoryPath:   repoPath,
	}

	for _, file := range parseNumstat(numstat) {
		if status, ok := statuses[file.Path]; ok {
			file.Status = status
		}
		diff.Files = append(diff.Files, file)
		diff.Additions += file.Additions
		diff.Deletions += file.Deletions
	}
	return diff
}

// parseNumstat parses "added<TAB>deleted<TAB>path" lines. Binary files
// report "-" for both counts.
func parseNumstat(out string) []domain.DiffFile {
	var files []domain.DiffFile
	for _, line := range strings.Split(out, "\n") {
		parts := strings.SplitN(strings.TrimSpace(line), "\t", 3)
		if len(parts) != 3 {
			continue
		}
		added, _ := strconv.Atoi(parts[0])
		deleted, _ := strconv.Atoi(parts[1])
		files = append(files, domain.DiffFile{
			Path:      renamedTarget(parts[2]),
			Status:    "modified",
			Additions: added,
			Deletions: deleted,
		})
	}
	return files
}

// parseNameStatus parses "X<TAB>path" lines into path -> status. For
// renames the line is "Rnnn<TAB>old<TAB>new" and the new path wins.
func parseNameStatus(out string) map[string]string {
	statuses := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		parts := strings.Split(strings.TrimSpace(line), "\t")
		if len(parts) < 2 || parts[0] == "" {
			continue
		}
		path := parts[len(parts)-1]
		switch parts[0][0] {
		case 'A':
			statuses[path] = "added"
		case 'D':
			statuses[path] = "deleted"
		case 'R':
			statuses[path] = "renamed"
		case 'C':
			statuses[path] = "copied"
		default:
			statuses[path] = "modified"
		}
	}
	return statuses
}

// renamedTarget resolves numstat rename notation "old => new" and
// "prefix/{old => new}/rest" to the new path.
func renamedTarget(path string) string {
	if !strings.Contains(path, " => ") {
		return path
	}
	if open := strings.Index(path, "{"); open >= 0 {
		closed := strings.Index(path, "}")
		inner := path[open+1 : closed]
		newPart := strings.SplitN(inner, " => ", 2)[1]
		resolved := path[:open] + newPart + path[closed+1:]
		return strings.ReplaceAll(resolved, "//", "/")
	}
	return strings.SplitN(path, " => ", 2)[1]
}
