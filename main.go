// docfold keeps a local cache of documentation from remote sources,
// maps services and features to their documentation, and answers
// hybrid keyword + semantic queries over the cache and feature graph.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"

	"github.com/docfold/docfold-cli/internal/adapters/driven/config/file"
	"github.com/docfold/docfold-cli/internal/adapters/driven/confluence"
	"github.com/docfold/docfold-cli/internal/adapters/driven/embedding/ollama"
	"github.com/docfold/docfold-cli/internal/adapters/driven/embedding/openai"
	"github.com/docfold/docfold-cli/internal/adapters/driven/extract/git"
	"github.com/docfold/docfold-cli/internal/adapters/driven/extract/github"
	"github.com/docfold/docfold-cli/internal/adapters/driven/gdrive"
	"github.com/docfold/docfold-cli/internal/adapters/driven/storage/sqlite"
	"github.com/docfold/docfold-cli/internal/adapters/driving/cli"
	"github.com/docfold/docfold-cli/internal/core/domain"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
	"github.com/docfold/docfold-cli/internal/core/ports/driving"
	"github.com/docfold/docfold-cli/internal/core/services"
	"github.com/docfold/docfold-cli/internal/logger"
	"github.com/docfold/docfold-cli/internal/postprocessors/chunker"
	"github.com/docfold/docfold-cli/internal/templates"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("initialising config: %w", err)
	}

	// Reload config.toml on change so the per-query weight and TTL
	// closures pick up edits; matters for mcp serve and tui.
	go func() {
		if err := cfg.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("config watcher stopped: %v", err)
		}
	}()

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close() //nolint:errcheck

	tmpl, err := templates.NewStore("")
	if err != nil {
		return fmt.Errorf("initialising templates: %w", err)
	}

	embedder := buildEmbedder(cfg)
	source := buildSource(ctx, cfg)

	searchSvc := services.NewSearchService(
		store.SearchIndex(),
		store.SearchCacheStore(),
		store.DocumentStore(),
		store.FeatureStore(),
		store.ServiceStore(),
		store.MappingStore(),
		embedder,
		weightsFromConfig(cfg),
		cacheTTLFromConfig(cfg),
	)
	graphSvc := services.NewGraphService(store.FeatureStore(), store.ServiceStore(), store.MappingStore(), embedder)
	mappingSvc := services.NewMappingService(store.ServiceStore(), store.MappingStore())
	docSvc := services.NewDocumentService(store.DocumentStore())
	genSvc := services.NewGenerationLedger(
		store.GenerationStore(),
		store.DiffCacheStore(),
		store.ServiceStore(),
		buildExtractors(ctx, cfg),
	)

	var syncSvc driving.Syncer
	if source != nil {
		syncSvc = services.NewSyncEngine(source, store.DocumentStore(), store.SyncBatchStore(), chunker.New(), embedder)
	}

	cli.SetVersion(version)
	cli.SetServices(&cli.Services{
		Sync:       syncSvc,
		Search:     searchSvc,
		Documents:  docSvc,
		Graph:      graphSvc,
		Mappings:   mappingSvc,
		Generation: genSvc,
		Config:     cfg,
		Templates:  tmpl,
		Stats:      store.Stats,
	})

	return cli.Execute()
}

// buildEmbedder returns the configured embedding client, or nil when
// embeddings are not set up. Search and the graph degrade to keyword
// signals without one.
func buildEmbedder(cfg driven.ConfigStore) driven.Embedder {
	switch cfg.GetString("embedding.provider") {
	case "openai":
		embedder, err := openai.New(openai.Config{
			APIKey:     cfg.GetString("embedding.api_key"),
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})
		if err != nil {
			logger.Warn("OpenAI embedder disabled: %v", err)
			return nil
		}
		return embedder
	case "ollama":
		return ollama.New(ollama.Config{
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})
	default:
		return nil
	}
}

// buildSource returns the configured document source, or nil when no
// source is set up. The sync command reports itself unconfigured then.
func buildSource(ctx context.Context, cfg driven.ConfigStore) driven.DocumentSource {
	if baseURL := cfg.GetString("confluence.base_url"); baseURL != "" {
		return confluence.NewSource(confluence.Config{
			BaseURL:  baseURL,
			Email:    cfg.GetString("confluence.email"),
			APIToken: cfg.GetString("confluence.api_token"),
			Team:     cfg.GetString("confluence.team"),
		})
	}

	if token := cfg.GetString("gdrive.access_token"); token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		source, err := gdrive.NewSource(ctx, ts, gdrive.Config{
			Team: cfg.GetString("gdrive.team"),
		})
		if err != nil {
			logger.Warn("Google Drive source disabled: %v", err)
			return nil
		}
		return source
	}

	return nil
}

func buildExtractors(ctx context.Context, cfg driven.ConfigStore) []driven.DiffExtractor {
	return []driven.DiffExtractor{
		git.NewCommitExtractor(),
		git.NewStagedExtractor(),
		git.NewRangeExtractor(),
		github.NewExtractor(ctx, cfg.GetString("github.token")),
	}
}

// weightsFromConfig reads the ranking weights per query so edits to
// config.toml take effect without a restart.
func weightsFromConfig(cfg driven.ConfigStore) func() domain.SearchWeights {
	return func() domain.SearchWeights {
		keyword := cfg.GetFloat("search.keyword_weight")
		semantic := cfg.GetFloat("search.semantic_weight")
		if keyword <= 0 && semantic <= 0 {
			return domain.DefaultSearchWeights()
		}
		return domain.SearchWeights{Keyword: keyword, Semantic: semantic}
	}
}

func cacheTTLFromConfig(cfg driven.ConfigStore) func() time.Duration {
	return func() time.Duration {
		if secs := cfg.GetInt("search.cache_ttl"); secs > 0 {
			return time.Duration(secs) * time.Second
		}
		return services.DefaultCacheTTL
	}
}
