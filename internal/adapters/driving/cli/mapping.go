package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Manage service documentation mappings",
	Long: `Links services to their documentation locations. A mapping names a
provider (confluence, gdrive, markdown) and a provider-specific
location (page id, file path, URL).`,
}

var mappingAddCmd = &cobra.Command{
	Use:   "add [service] [provider] [location]",
	Short: "Link a service to a documentation location",
	Args:  cobra.ExactArgs(3),
	RunE:  runMappingAdd,
}

var mappingListCmd = &cobra.Command{
	Use:   "list [service]",
	Short: "List a service's mappings",
	Args:  cobra.ExactArgs(1),
	RunE:  runMappingList,
}

var mappingRemoveCmd = &cobra.Command{
	Use:   "remove [service] [provider] [location]",
	Short: "Remove one mapping",
	Args:  cobra.ExactArgs(3),
	RunE:  runMappingRemove,
}

var mappingSetPrimaryCmd = &cobra.Command{
	Use:   "set-primary [service] [mapping-id]",
	Short: "Mark a mapping as the service's main page",
	Args:  cobra.ExactArgs(2),
	RunE:  runMappingSetPrimary,
}

var (
	mappingTitle   string
	mappingSection string
	mappingPrimary bool
)

func init() {
	mappingAddCmd.Flags().StringVar(&mappingTitle, "title", "", "document title")
	mappingAddCmd.Flags().StringVar(&mappingSection, "section", "", "section anchor within the document")
	mappingAddCmd.Flags().BoolVar(&mappingPrimary, "primary", false, "mark as the service's main page")

	mappingCmd.AddCommand(mappingAddCmd)
	mappingCmd.AddCommand(mappingListCmd)
	mappingCmd.AddCommand(mappingRemoveCmd)
	mappingCmd.AddCommand(mappingSetPrimaryCmd)
	rootCmd.AddCommand(mappingCmd)
}

func runMappingAdd(cmd *cobra.Command, args []string) error {
	if mappingService == nil {
		return errors.New("mapping service not configured")
	}

	opts := domain.MappingOptions{
		Title:     mappingTitle,
		Section:   mappingSection,
		IsPrimary: mappingPrimary,
	}

	m, err := mappingService.AddMapping(cmd.Context(), args[0], args[1], args[2], opts)
	if err != nil {
		return fmt.Errorf("failed to add mapping: %w", err)
	}

	cmd.Printf("Mapping %d added: %s -> %s/%s\n", m.ID, args[0], m.Provider, m.Location)
	return nil
}

func runMappingList(cmd *cobra.Command, args []string) error {
	if mappingService == nil {
		return errors.New("mapping service not configured")
	}

	mappings, err := mappingService.GetMappings(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list mappings: %w", err)
	}

	if len(mappings) == 0 {
		cmd.Printf("No mappings for service: %s\n", args[0])
		return nil
	}

	cmd.Printf("Mappings for %s:\n\n", args[0])
	for i := range mappings {
		m := &mappings[i]
		marker := " "
		if m.IsPrimary {
			marker = "*"
		}
		cmd.Printf("  %s [%d] %s: %s\n", marker, m.ID, m.Provider, m.Location)
		if m.Title != "" {
			cmd.Printf("      Title: %s\n", m.Title)
		}
		if m.Section != "" {
			cmd.Printf("      Section: %s\n", m.Section)
		}
	}
	cmd.Println()
	cmd.Printf("Total: %d mappings (* = primary)\n", len(mappings))
	return nil
}

func runMappingRemove(cmd *cobra.Command, args []string) error {
	if mappingService == nil {
		return errors.New("mapping service not configured")
	}

	if err := mappingService.RemoveMapping(cmd.Context(), args[0], args[1], args[2]); err != nil {
		return fmt.Errorf("failed to remove mapping: %w", err)
	}

	cmd.Printf("Mapping removed: %s -> %s/%s\n", args[0], args[1], args[2])
	return nil
}

func runMappingSetPrimary(cmd *cobra.Command, args []string) error {
	if mappingService == nil {
		return errors.New("mapping service not configured")
	}

	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid mapping id %q", args[1])
	}

	if err := mappingService.SetPrimary(cmd.Context(), args[0], id); err != nil {
		return fmt.Errorf("failed to set primary mapping: %w", err)
	}

	cmd.Printf("Mapping %d is now the primary page for %s.\n", id, args[0])
	return nil
}
