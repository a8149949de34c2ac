package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [service]",
	Short: "Show the generation audit trail",
	Long: `Lists recent documentation generation runs, newest first. With a
service name only that service's runs are shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

var (
	historyLimit int
	historyJSON  bool
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of records")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output records as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if generationService == nil {
		return errors.New("generation service not configured")
	}

	var serviceName string
	if len(args) > 0 {
		serviceName = args[0]
	}

	records, err := generationService.History(cmd.Context(), serviceName, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if historyJSON {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(records) == 0 {
		cmd.Println("No generation records found.")
		return nil
	}

	for i := range records {
		r := &records[i]
		cmd.Printf("  [%d] %s %s %s -> %s/%s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Status, r.Action,
			r.Provider, r.DocumentRef)
		cmd.Printf("      Source: %s %s\n", r.SourceType, r.SourceIdentifier)
		if r.Error != "" {
			cmd.Printf("      Error: %s\n", r.Error)
		}
	}
	cmd.Println()
	cmd.Printf("Total: %d records\n", len(records))
	return nil
}
