// Package cli wires the cobra command tree for the docfold binary.
// Commands hold no business logic: each RunE validates arguments,
// calls a driving port, and formats the result.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/docfold/docfold-cli/internal/core/ports/driven"
	"github.com/docfold/docfold-cli/internal/core/ports/driving"
	"github.com/docfold/docfold-cli/internal/logger"
	"github.com/docfold/docfold-cli/internal/templates"
)

// version is the release version, overridden at build time via ldflags.
var version = "dev"

// StatsFunc reports row counts of the main cache tables.
type StatsFunc func(ctx context.Context) (map[string]int64, error)

// Injected services. Each command checks its service for nil so the
// tree stays navigable (help, completion) without a full wiring.
var (
	syncService       driving.Syncer
	searchService     driving.Searcher
	documentService   driving.Documents
	graphService      driving.Graph
	mappingService    driving.Mappings
	generationService driving.Generation
	configStore       driven.ConfigStore
	templateStore     *templates.Store
	statsFn           StatsFunc
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "docfold",
	Short: "Documentation knowledge cache and sync",
	Long: `docfold keeps a local cache of documentation from remote sources
(Confluence, Google Drive), maps services and features to their
documentation, and answers hybrid keyword + semantic queries over the
cache and the feature graph.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Services aggregates everything the command tree needs. A single
// injection point keeps main.go's wiring in one place.
type Services struct {
	Sync       driving.Syncer
	Search     driving.Searcher
	Documents  driving.Documents
	Graph      driving.Graph
	Mappings   driving.Mappings
	Generation driving.Generation
	Config     driven.ConfigStore
	Templates  *templates.Store
	Stats      StatsFunc
}

// SetServices injects the services the commands run against.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	syncService = s.Sync
	searchService = s.Search
	documentService = s.Documents
	graphService = s.Graph
	mappingService = s.Mappings
	generationService = s.Generation
	configStore = s.Config
	templateStore = s.Templates
	statsFn = s.Stats
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
