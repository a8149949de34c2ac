package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docfold/docfold-cli/internal/templates"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage generation templates",
	Long: `Inspect and test the page templates the generation pipeline renders.

Templates live under ~/.docfold/templates/ and use {{name}} placeholders
from a fixed vocabulary. Editing a file overrides the embedded default;
templates with unknown placeholders are rejected when loaded.`,
}

var templateShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Print a template body",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateShow,
}

var templateRenderCmd = &cobra.Command{
	Use:   "render [name]",
	Short: "Render a template with test values",
	Long: `Renders a template with values supplied via --var, so edits can be
previewed before the generation pipeline uses them.

Example:
  docfold template render doc_page --var service_name=billing-svc --var summary="Refund flow"`,
	Args: cobra.ExactArgs(1),
	RunE: runTemplateRender,
}

var templatePlaceholdersCmd = &cobra.Command{
	Use:   "placeholders",
	Short: "List the accepted placeholder names",
	RunE:  runTemplatePlaceholders,
}

var templateVars []string

func init() {
	templateRenderCmd.Flags().StringArrayVar(&templateVars, "var", nil, "placeholder value as name=value (repeatable)")

	templateCmd.AddCommand(templateShowCmd)
	templateCmd.AddCommand(templateRenderCmd)
	templateCmd.AddCommand(templatePlaceholdersCmd)
	rootCmd.AddCommand(templateCmd)
}

func runTemplateShow(cmd *cobra.Command, args []string) error {
	if templateStore == nil {
		return errors.New("template store not configured")
	}

	body, err := templateStore.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}

	cmd.Println(body)
	return nil
}

func runTemplateRender(cmd *cobra.Command, args []string) error {
	if templateStore == nil {
		return errors.New("template store not configured")
	}

	vars := make(templates.Vars, len(templateVars))
	for _, pair := range templateVars {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid --var %q, expected name=value", pair)
		}
		vars[name] = value
	}

	rendered, err := templateStore.Render(args[0], vars)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	cmd.Println(rendered)
	return nil
}

func runTemplatePlaceholders(cmd *cobra.Command, _ []string) error {
	cmd.Println("Accepted placeholders:")
	for _, name := range templates.KnownPlaceholders() {
		cmd.Printf("  {{%s}}\n", name)
	}
	return nil
}
