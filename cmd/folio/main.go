// Command folio builds and searches research-document corpora.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/folio/internal/adapters/driven/config/file"
	"github.com/custodia-labs/folio/internal/adapters/driven/embedding"
	"github.com/custodia-labs/folio/internal/adapters/driven/library/mirror"
	"github.com/custodia-labs/folio/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/folio/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/folio/internal/adapters/driving/cli"
	"github.com/custodia-labs/folio/internal/connectors/adhoc"
	"github.com/custodia-labs/folio/internal/connectors/filesystem"
	"github.com/custodia-labs/folio/internal/connectors/localfolder"
	"github.com/custodia-labs/folio/internal/connectors/remotelibrary"
	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/core/services"
	"github.com/custodia-labs/folio/internal/logger"
	"github.com/custodia-labs/folio/internal/normalisers"
	"github.com/custodia-labs/folio/internal/postprocessors/chunker"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// envFile is read from the working directory when present.
const envFile = ".env"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	err := cli.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// bootstrap resolves the configuration and wires every service.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	dataDir, err := file.DefaultDataDir()
	if err != nil {
		return nil, fmt.Errorf("locate data directory: %w", err)
	}

	store, err := openConfigStore(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("open configuration: %w", err)
	}
	env, err := file.LoadEnv(envFile)
	if err != nil {
		return nil, err
	}

	settings := services.NewSettingsService(store, func(values map[string]any) (domain.Config, error) {
		return file.Resolve(memory.NewConfigStore(values), env, dataDir)
	})
	if opts.SettingsOnly {
		return &cli.Services{Settings: settings}, nil
	}

	cfg, err := file.Resolve(store, env, dataDir)
	if err != nil {
		return nil, err
	}
	if opts.BaseDir != "" {
		cfg.BaseDir = opts.BaseDir
	}
	logger.Debug("configuration %s, corpora in %s", store.Path(), cfg.BaseDir)

	scanner, err := filesystem.NewScanner(cfg.Extraction.Extensions, cfg.Extraction.Exclude)
	if err != nil {
		return nil, err
	}
	chunk, err := chunker.FromSettings(cfg.Chunking)
	if err != nil {
		return nil, err
	}
	newEmbedder := embedding.New
	if opts.CheckEmbedding {
		newEmbedder = func(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
			return embedding.NewValidated(ctx, settings)
		}
	}
	embedder, err := newEmbedder(cfg.Embedding)
	if err != nil {
		return nil, err
	}

	manager, err := services.NewManager(cfg, services.ManagerDeps{
		Extractor:  services.NewExtractor(normalisers.NewDefaultRegistry(cfg.Extraction.PDFToolFallback), scanner),
		Chunker:    chunk,
		Embedder:   embedder,
		Snapshots:  sqlite.NewSnapshotStore(),
		NewStore:   func() driven.VectorStore { return memory.NewVectorStore() },
		NewChunker: chunker.New,
	})
	if err != nil {
		embedder.Close()
		return nil, err
	}

	orchestrator := services.NewOrchestrator(manager,
		localfolder.New(cfg.Sources.LocalFolders, scanner),
		remotelibrary.New(mirror.New(cfg.Sources.Library, scanner), scanner),
		adhoc.New(scanner),
	)

	return &cli.Services{
		Manager:      manager,
		Orchestrator: orchestrator,
		Search:       services.NewSearchService(manager),
		Settings:     settings,
		NewWatcher: func(root string) (cli.Watcher, error) {
			return filesystem.NewWatcher(root, scanner), nil
		},
		Close: embedder.Close,
	}, nil
}

func openConfigStore(path string) (*file.ConfigStore, error) {
	if path != "" {
		return file.NewConfigStoreFile(path)
	}
	return file.NewConfigStore("")
}
