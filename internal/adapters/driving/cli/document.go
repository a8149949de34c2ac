package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Inspect cached documents",
	Long:  `List and view documents held in the local knowledge cache.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached documents",
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [id-or-url]",
	Short: "Show one document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [id-or-url]",
	Short: "Print document content",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var (
	documentTeam     string
	documentTags     []string
	documentProvider string
)

func init() {
	documentListCmd.Flags().StringVar(&documentTeam, "team", "", "restrict to a team")
	documentListCmd.Flags().StringSliceVar(&documentTags, "tag", nil, "restrict to documents carrying all tags")
	documentListCmd.Flags().StringVar(&documentProvider, "provider", "", "restrict to one document source")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentContentCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	filters := domain.SearchFilters{
		Team:     documentTeam,
		Tags:     documentTags,
		Provider: documentProvider,
	}

	docs, err := documentService.List(cmd.Context(), filters)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Title: %s\n", docs[i].Title)
		cmd.Printf("    Source: %s/%s\n", docs[i].Provider, docs[i].Scope)
		if docs[i].URL != "" {
			cmd.Printf("    URL: %s\n", docs[i].URL)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:    %s\n", doc.Title)
	cmd.Printf("  Provider: %s\n", doc.Provider)
	cmd.Printf("  Scope:    %s\n", doc.Scope)
	cmd.Printf("  URL:      %s\n", doc.URL)
	if doc.Team != "" {
		cmd.Printf("  Team:     %s\n", doc.Team)
	}
	if len(doc.Tags) > 0 {
		cmd.Printf("  Tags:     %s\n", strings.Join(doc.Tags, ", "))
	}
	cmd.Printf("  Updated:  %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Fetched:  %s\n", doc.FetchedAt.Format("2006-01-02 15:04:05"))

	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Println(doc.Content)
	return nil
}
