package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docfold/docfold-cli/internal/core/services"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage registered services",
	Long:  `Register, list, and remove the services the knowledge graph tracks.`,
}

var serviceAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Register a service",
	Long: `Registers a service by name. With --detect the name is derived from
the repository at --path (go.mod module name, package.json name, or the
directory name).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServiceAdd,
}

var serviceRemoveCmd = &cobra.Command{
	Use:   "remove [name]",
	Short: "Remove a service",
	Long:  `Removes a service. Its mappings and features are removed with it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runServiceRemove,
}

var serviceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered services",
	RunE:  runServiceList,
}

var (
	servicePath        string
	serviceDescription string
	serviceDetect      bool
)

func init() {
	serviceAddCmd.Flags().StringVar(&servicePath, "path", "", "repository path on disk")
	serviceAddCmd.Flags().StringVar(&serviceDescription, "description", "", "free-form summary")
	serviceAddCmd.Flags().BoolVar(&serviceDetect, "detect", false, "derive the name from the repository at --path")

	serviceCmd.AddCommand(serviceAddCmd)
	serviceCmd.AddCommand(serviceRemoveCmd)
	serviceCmd.AddCommand(serviceListCmd)
	rootCmd.AddCommand(serviceCmd)
}

func runServiceAdd(cmd *cobra.Command, args []string) error {
	if mappingService == nil {
		return errors.New("mapping service not configured")
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	}

	if serviceDetect {
		dir := servicePath
		if dir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to resolve working directory: %w", err)
			}
			dir = wd
		}
		detected := services.DetectServiceName(dir)
		if detected == "" {
			return fmt.Errorf("could not detect a service name in %s", dir)
		}
		name = detected
		if servicePath == "" {
			servicePath = dir
		}
	}

	if name == "" {
		return errors.New("a service name or --detect is required")
	}

	svc, err := mappingService.AddService(cmd.Context(), name, servicePath, serviceDescription)
	if err != nil {
		return fmt.Errorf("failed to add service: %w", err)
	}

	cmd.Printf("Service %s registered (id %d).\n", svc.Name, svc.ID)
	return nil
}

func runServiceRemove(cmd *cobra.Command, args []string) error {
	if mappingService == nil {
		return errors.New("mapping service not configured")
	}

	if err := mappingService.RemoveService(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to remove service: %w", err)
	}

	cmd.Printf("Service %s removed.\n", args[0])
	return nil
}

func runServiceList(cmd *cobra.Command, _ []string) error {
	if mappingService == nil {
		return errors.New("mapping service not configured")
	}

	svcs, err := mappingService.ListServices(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list services: %w", err)
	}

	if len(svcs) == 0 {
		cmd.Println("No services registered.")
		return nil
	}

	cmd.Println("Registered services:")
	cmd.Println()
	for i := range svcs {
		cmd.Printf("  %s\n", svcs[i].Name)
		if svcs[i].Path != "" {
			cmd.Printf("    Path: %s\n", svcs[i].Path)
		}
		if svcs[i].Description != "" {
			cmd.Printf("    %s\n", svcs[i].Description)
		}
	}
	cmd.Println()
	cmd.Printf("Total: %d services\n", len(svcs))
	return nil
}
