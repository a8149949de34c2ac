package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Long:  `Prints row counts of the main cache tables.`,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if statsFn == nil {
		return errors.New("stats not configured")
	}

	counts, err := statsFn(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	cmd.Println("Cache statistics:")
	cmd.Println()
	for _, name := range names {
		cmd.Printf("  %-20s %d\n", name, counts[name])
	}
	return nil
}
