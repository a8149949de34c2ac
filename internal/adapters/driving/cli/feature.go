package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

var featureCmd = &cobra.Command{
	Use:   "feature",
	Short: "Manage the feature graph",
	Long: `Creates features, relates them to each other, and links them to
documentation locations.`,
}

var featureAddCmd = &cobra.Command{
	Use:   "add [service] [name]",
	Short: "Create a feature under a service",
	Args:  cobra.ExactArgs(2),
	RunE:  runFeatureAdd,
}

var featureRelateCmd = &cobra.Command{
	Use:   "relate [parent-id] [child-id]",
	Short: "Add a directed relation between two features",
	Long: `Adds a directed edge between two features.

Relation types:
  depends_on  - dependency (kept acyclic)
  part_of     - containment (kept acyclic)
  relates_to  - loose association
  similar_to  - semantic similarity`,
	Args: cobra.ExactArgs(2),
	RunE: runFeatureRelate,
}

var featureMapCmd = &cobra.Command{
	Use:   "map [feature-id] [document-ref]",
	Short: "Link a documentation location to a feature",
	Args:  cobra.ExactArgs(2),
	RunE:  runFeatureMap,
}

var featureGetCmd = &cobra.Command{
	Use:   "get [feature-id]",
	Short: "Show a feature with its graph neighbourhood",
	Args:  cobra.ExactArgs(1),
	RunE:  runFeatureGet,
}

var featureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List features",
	RunE:  runFeatureList,
}

var (
	featureDescription string
	featureType        string
	featureTags        []string
	featureAliases     []string
	relationType       string
	relationStrength   float64
	featureTeam        string
)

func init() {
	featureAddCmd.Flags().StringVar(&featureDescription, "description", "", "free-form summary")
	featureAddCmd.Flags().StringVar(&featureType, "type", "other", "feature type (api, ui, business_logic, ...)")
	featureAddCmd.Flags().StringSliceVar(&featureTags, "tag", nil, "labels for filtering")
	featureAddCmd.Flags().StringSliceVar(&featureAliases, "alias", nil, "alternative names indexed for search")

	featureRelateCmd.Flags().StringVar(&relationType, "type", string(domain.RelationRelatesTo), "relation type")
	featureRelateCmd.Flags().Float64Var(&relationStrength, "strength", 1.0, "edge weight in 0..1")

	featureListCmd.Flags().StringVar(&featureTeam, "team", "", "restrict to a team")

	featureCmd.AddCommand(featureAddCmd)
	featureCmd.AddCommand(featureRelateCmd)
	featureCmd.AddCommand(featureMapCmd)
	featureCmd.AddCommand(featureGetCmd)
	featureCmd.AddCommand(featureListCmd)
	rootCmd.AddCommand(featureCmd)
}

func runFeatureAdd(cmd *cobra.Command, args []string) error {
	if graphService == nil {
		return errors.New("graph service not configured")
	}

	f := domain.Feature{
		Name:        args[1],
		Description: featureDescription,
		Type:        domain.ParseFeatureType(featureType),
		Tags:        featureTags,
	}

	created, err := graphService.AddFeature(cmd.Context(), args[0], f, featureAliases)
	if err != nil {
		return fmt.Errorf("failed to add feature: %w", err)
	}

	cmd.Printf("Feature %s created (id %s).\n", created.Name, created.ID)
	return nil
}

func runFeatureRelate(cmd *cobra.Command, args []string) error {
	if graphService == nil {
		return errors.New("graph service not configured")
	}

	relType := domain.RelationType(relationType)
	if !relType.IsValid() {
		return fmt.Errorf("unknown relation type %q", relationType)
	}

	rel, err := graphService.RelateFeatures(cmd.Context(), args[0], args[1], relType, relationStrength)
	if err != nil {
		return fmt.Errorf("failed to relate features: %w", err)
	}

	cmd.Printf("Relation added: %s -[%s]-> %s\n", rel.ParentID, rel.Type, rel.ChildID)
	return nil
}

func runFeatureMap(cmd *cobra.Command, args []string) error {
	if graphService == nil {
		return errors.New("graph service not configured")
	}

	m, err := graphService.MapFeatureDocument(cmd.Context(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to map feature to document: %w", err)
	}

	cmd.Printf("Feature %s linked to %s/%s (mapping %d).\n", args[0], m.Provider, m.Location, m.ID)
	return nil
}

func runFeatureGet(cmd *cobra.Command, args []string) error {
	if graphService == nil {
		return errors.New("graph service not configured")
	}

	detail, err := graphService.GetFeature(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get feature: %w", err)
	}

	f := &detail.Feature
	cmd.Printf("Feature: %s\n\n", f.Name)
	cmd.Printf("  ID:        %s\n", f.ID)
	cmd.Printf("  Service:   %s\n", detail.ServiceName)
	cmd.Printf("  Type:      %s\n", f.Type)
	if f.Description != "" {
		cmd.Printf("  About:     %s\n", f.Description)
	}
	if len(f.Tags) > 0 {
		cmd.Printf("  Tags:      %s\n", strings.Join(f.Tags, ", "))
	}
	cmd.Printf("  Relevance: %.2f\n", f.RelevanceScore)

	if len(detail.Parents) > 0 {
		cmd.Println("\n  Parents:")
		for i := range detail.Parents {
			cmd.Printf("    %s (%s)\n", detail.Parents[i].Name, detail.Parents[i].ID)
		}
	}
	if len(detail.Children) > 0 {
		cmd.Println("\n  Children:")
		for i := range detail.Children {
			cmd.Printf("    %s (%s)\n", detail.Children[i].Name, detail.Children[i].ID)
		}
	}
	if len(detail.Documents) > 0 {
		cmd.Println("\n  Documents:")
		for i := range detail.Documents {
			d := &detail.Documents[i]
			cmd.Printf("    %s: %s\n", d.Provider, d.Location)
		}
	}

	return nil
}

func runFeatureList(cmd *cobra.Command, _ []string) error {
	if graphService == nil {
		return errors.New("graph service not configured")
	}

	features, err := graphService.ListFeatures(cmd.Context(), featureTeam)
	if err != nil {
		return fmt.Errorf("failed to list features: %w", err)
	}

	if len(features) == 0 {
		cmd.Println("No features found.")
		return nil
	}

	for i := range features {
		f := &features[i]
		cmd.Printf("  %s (%s, %s)\n", f.Name, f.ID, f.Type)
		if f.Description != "" {
			cmd.Printf("    %s\n", f.Description)
		}
	}
	cmd.Println()
	cmd.Printf("Total: %d features\n", len(features))
	return nil
}
