package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

var extractCmd = &cobra.Command{
	Use:   "extract [source-type] [identifier]",
	Short: "Extract a structured diff for a change",
	Long: `Extracts the structured diff the generation pipeline consumes.

Source types:
  commit  - one commit, identified by its SHA
  staged  - the staged tree (no identifier)
  range   - a revision range, e.g. main..feature
  pr      - a GitHub pull request, e.g. owner/repo#123

Extracted diffs are memoized: a repeat extraction inside the TTL window
is served from cache.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runExtract,
}

var (
	extractRepo string
	extractJSON bool
)

func init() {
	extractCmd.Flags().StringVar(&extractRepo, "repo", "", "local repository path (default: current directory)")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "output the diff as JSON")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	if generationService == nil {
		return errors.New("generation service not configured")
	}

	req := domain.ExtractParams{
		SourceType:     domain.SourceType(args[0]),
		RepositoryPath: extractRepo,
	}
	if len(args) > 1 {
		req.Identifier = args[1]
	}

	diff, cached, err := generationService.ExtractDiff(cmd.Context(), req)
	if errors.Is(err, domain.ErrStale) {
		cmd.Println("warning: extraction failed, showing an expired cached diff")
		err = nil
	}
	if err != nil {
		return fmt.Errorf("failed to extract diff: %w", err)
	}

	if extractJSON {
		data, err := json.MarshalIndent(diff, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal diff: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if cached {
		cmd.Println("(served from cache)")
	}
	cmd.Printf("%s\n\n", diff.Summary)
	for _, f := range diff.Files {
		cmd.Printf("  %-8s %s (+%d -%d)\n", f.Status, f.Path, f.Additions, f.Deletions)
	}
	cmd.Println()
	cmd.Printf("%d files changed, +%d -%d\n", len(diff.Files), diff.Additions, diff.Deletions)
	return nil
}
