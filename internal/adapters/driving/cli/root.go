// Package cli implements the folio command line with cobra.
//
// Commands reach the core only through driving ports held in package
// variables. main installs a Bootstrap that builds them from the resolved
// configuration once the global flags are parsed; tests assign the
// variables directly.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driving"
	"github.com/custodia-labs/folio/internal/logger"
)

// version is set at build time.
var version = "dev"

// Options carries the global flags into Bootstrap.
type Options struct {
	// ConfigPath overrides the configuration file location.
	ConfigPath string

	// BaseDir overrides the corpus directory from the configuration.
	BaseDir string

	// SettingsOnly is set for the config commands, which must work while
	// the stored configuration is invalid.
	SettingsOnly bool

	// CheckEmbedding is set for commands that embed text. The embedding
	// service should be reachable before they start work.
	CheckEmbedding bool
}

// Watcher reports changes to supported files below one folder.
type Watcher interface {
	Watch(ctx context.Context) (<-chan domain.FileChange, error)
	Close() error
}

// WatcherFactory creates a watcher for root.
type WatcherFactory func(root string) (Watcher, error)

// Services holds everything the commands need.
type Services struct {
	Manager      driving.CorpusManager
	Orchestrator driving.BuildOrchestrator
	Search       driving.SearchService
	Settings     driving.SettingsService
	NewWatcher   WatcherFactory

	// Close releases resources such as the embedding client.
	Close func() error
}

// Bootstrap builds the services from the global flags.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

// annotationEmbeds marks commands that call the embedding service.
const annotationEmbeds = "folio.embeds"

var (
	corpusManager     driving.CorpusManager
	buildOrchestrator driving.BuildOrchestrator
	searchService     driving.SearchService
	settingsService   driving.SettingsService
	newWatcher        WatcherFactory
	closeServices     func() error

	bootstrap Bootstrap
)

// Global flags.
var (
	verbose    bool
	jsonLogs   bool
	configPath string
	baseDir    string
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Build and search research-document knowledge bases",
	Long: `folio ingests PDF, LaTeX, Markdown, HTML and plain-text research documents
from local folders, a reference library and ad hoc folders, splits them into
overlapping chunks, embeds every chunk and stores the result as a named corpus
that supports nearest-neighbour search.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "log-json", false, "write logs as JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "configuration file (default ~/.folio/config.toml)")
	rootCmd.PersistentFlags().StringVar(&baseDir, "base-dir", "", "directory holding the corpora")

	for _, c := range []*cobra.Command{createCmd, searchCmd, watchCmd, mcpCmd, migrateCmd, addCmd} {
		c.Annotations = map[string]string{annotationEmbeds: "true"}
	}
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap installs the function that builds the services.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs services directly.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	corpusManager = s.Manager
	buildOrchestrator = s.Orchestrator
	searchService = s.Search
	settingsService = s.Settings
	newWatcher = s.NewWatcher
	closeServices = s.Close
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which commands observe
// for cancellation. Services are closed afterwards.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if cerr := teardown(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetJSON(jsonLogs)

	if bootstrap == nil || skipBootstrap(cmd) {
		return nil
	}
	svc, err := bootstrap(cmd.Context(), Options{
		ConfigPath:     configPath,
		BaseDir:        baseDir,
		SettingsOnly:   isConfigCommand(cmd),
		CheckEmbedding: needsEmbedding(cmd),
	})
	if err != nil {
		return err
	}
	SetServices(svc)
	return nil
}

func teardown() error {
	if closeServices == nil {
		return nil
	}
	closeFn := closeServices
	closeServices = nil
	return closeFn()
}

// skipBootstrap reports whether cmd runs without services.
func skipBootstrap(cmd *cobra.Command) bool {
	return cmd == versionCmd || cmd.Name() == "help" || cmd.Name() == cobra.ShellCompRequestCmd
}

func isConfigCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c == configCmd {
			return true
		}
	}
	return false
}

// needsEmbedding reports whether cmd embeds text. A dry run only scans.
func needsEmbedding(cmd *cobra.Command) bool {
	if cmd.Annotations[annotationEmbeds] == "" {
		return false
	}
	if f := cmd.Flags().Lookup("dry-run"); f != nil && f.Value.String() == "true" {
		return false
	}
	return true
}

// errNotConfigured builds the error returned when a service is missing.
func errNotConfigured(service string) error {
	return errors.New(service + " not configured")
}
