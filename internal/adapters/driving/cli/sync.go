package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

var syncFull bool

var syncCmd = &cobra.Command{
	Use:   "sync [scope]",
	Short: "Synchronise documents for a scope",
	Long: `Reconciles the local cache against the remote source for one scope
(a Confluence space key or a Drive folder id).

By default only documents modified since the last sync are fetched.
Use --full to refetch the entire scope.`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncFull, "full", false, "refetch every document in the scope")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	scope := args[0]
	mode := domain.SyncModeIncremental
	if syncFull {
		mode = domain.SyncModeFull
	}

	cmd.Printf("Synchronising scope %s (%s)...\n", scope, mode)

	report, err := syncService.Sync(cmd.Context(), scope, mode)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	cmd.Printf("Scope %s synchronised in %s\n", report.Scope, report.Duration.Round(time.Millisecond))
	cmd.Printf("  Added:     %d\n", report.Added)
	cmd.Printf("  Updated:   %d\n", report.Updated)
	cmd.Printf("  Removed:   %d\n", report.Removed)
	cmd.Printf("  Unchanged: %d\n", report.Unchanged)

	if len(report.Failed) > 0 {
		cmd.Printf("  Failed:    %d\n", len(report.Failed))
		for _, f := range report.Failed {
			cmd.Printf("    %s: %s\n", f.SourceID, f.Reason)
		}
		cmd.Println("Failed documents are retried on the next sync.")
	}

	return nil
}
