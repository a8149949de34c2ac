package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

var (
	searchLimit    int
	searchTeam     string
	searchTags     []string
	searchProvider string
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the knowledge cache",
	Long: `Performs hybrid search across cached documents and the feature graph.
Combines keyword (BM25) and semantic (vector) signals, and enriches
each hit with related services and features.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().StringVar(&searchTeam, "team", "", "restrict to a team")
	searchCmd.Flags().StringSliceVar(&searchTags, "tag", nil, "restrict to entries carrying all tags")
	searchCmd.Flags().StringVar(&searchProvider, "provider", "", "restrict to one document source")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	opts := domain.SearchOptions{
		Limit: searchLimit,
		Filters: domain.SearchFilters{
			Team:     searchTeam,
			Tags:     searchTags,
			Provider: searchProvider,
		},
	}

	results, err := searchService.Search(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.RankedResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.RankedResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		r := &results[i]

		title := r.Title
		if title == "" {
			title = r.ID
		}

		cmd.Printf("  [%d] %s (%s, %.2f)\n", i+1, title, r.Kind, r.Score)
		if r.Location != "" {
			cmd.Printf("      Location: %s\n", r.Location)
		}
		if r.Team != "" {
			cmd.Printf("      Team: %s\n", r.Team)
		}
		if r.Summary != "" {
			cmd.Printf("      %s\n", r.Summary)
		}
		if len(r.RelatedServices) > 0 {
			cmd.Printf("      Services: %s\n", strings.Join(r.RelatedServices, ", "))
		}
		if len(r.RelatedFeatures) > 0 {
			cmd.Printf("      Features: %s\n", strings.Join(r.RelatedFeatures, ", "))
		}
		cmd.Println()
	}

	return nil
}
