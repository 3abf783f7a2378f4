package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/folio/internal/adapters/driving/tui"
	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/logger"
)

var (
	createLocal    []string
	createRemote   []string
	createAdHoc    string
	createManifest string
	createReplace  string
	createAppend   string
	createForce    bool
	createDryRun   bool
)

var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Build a corpus from one or more sources",
	Long: `Builds a corpus from local folders, the reference library and an ad-hoc
folder. Sources are processed in that order. When one source fails and
another succeeds the corpus is saved with a "_partial" suffix.

Examples:
  folio create physics --local all
  folio create physics --local literature,your_work --remote all
  folio create physics --append physics --adhoc ~/Downloads/papers
  folio create --manifest build.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringSliceVar(&createLocal, "local", nil, `local folder tags, or "all"`)
	createCmd.Flags().StringSliceVar(&createRemote, "remote", nil, `library collections, or "all"`)
	createCmd.Flags().StringVar(&createAdHoc, "adhoc", "", "ad-hoc folder to ingest")
	createCmd.Flags().StringVarP(&createManifest, "manifest", "m", "", "YAML build manifest")
	createCmd.Flags().StringVar(&createReplace, "replace", "", "existing corpus to rebuild")
	createCmd.Flags().StringVar(&createAppend, "append", "", "existing corpus to add to")
	createCmd.Flags().BoolVarP(&createForce, "force", "f", false, "rebuild the corpus if the name is taken")
	createCmd.Flags().BoolVar(&createDryRun, "dry-run", false, "scan the sources without building")

	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	if buildOrchestrator == nil {
		return errNotConfigured("build orchestrator")
	}

	req, err := createRequest(cmd, args)
	if err != nil {
		return err
	}

	if createDryRun {
		printScans(cmd, buildOrchestrator.Preview(cmd.Context(), req.Sources))
		return nil
	}

	if req.Name == "" {
		return fmt.Errorf("%w: corpus name is required", domain.ErrInvalidName)
	}
	if !req.Sources.Any() {
		return fmt.Errorf("%w: select at least one of --local, --remote and --adhoc", domain.ErrNoSourcesSelected)
	}

	result := runBuild(cmd, req)
	printBuildResult(cmd, result)
	if !result.Success {
		return fmt.Errorf("build failed: %w", result.Err)
	}
	return nil
}

// createRequest merges the manifest, the flags and the name argument.
func createRequest(cmd *cobra.Command, args []string) (domain.BuildRequest, error) {
	var m manifest
	if createManifest != "" {
		loaded, err := loadManifest(createManifest)
		if err != nil {
			return domain.BuildRequest{}, err
		}
		m = loaded
	}

	flags := manifest{
		Replace: createReplace,
		Append:  createAppend,
		Local:   fromNames(createLocal),
		Remote:  fromNames(createRemote),
		AdHoc:   createAdHoc,
	}
	if len(args) > 0 {
		flags.Name = args[0]
	}
	m = m.merge(flags)

	req, err := m.request()
	if err != nil {
		return domain.BuildRequest{}, err
	}

	if createForce && req.Operation == domain.OperationCreate && req.Name != "" && corpusManager != nil {
		if _, err := corpusManager.Describe(cmd.Context(), req.Name); err == nil {
			logger.Info("corpus %s exists, rebuilding it", req.Name)
			req.Operation = domain.OperationReplace
			req.ExistingName = req.Name
		}
	}
	return req, nil
}

// runBuild shows the progress view on a terminal and log lines elsewhere.
func runBuild(cmd *cobra.Command, req domain.BuildRequest) domain.BuildResult {
	ctx := cmd.Context()

	if isTerminal() {
		title := fmt.Sprintf("Building %s", req.Name)
		result, err := tui.Run(ctx, title, func(ctx context.Context, progress domain.ProgressFunc) domain.BuildResult {
			return buildOrchestrator.Run(ctx, req, progress)
		})
		if err != nil {
			logger.Warn("progress view: %v", err)
		}
		return result
	}

	return buildOrchestrator.Run(ctx, req, func(message string, percent float64) {
		logger.Info("[%3.0f%%] %s", percent, message)
	})
}

func printScans(cmd *cobra.Command, scans []domain.ScanResult) {
	if len(scans) == 0 {
		cmd.Println("No sources selected.")
		return
	}
	for i := range scans {
		s := scans[i]
		if !s.Success {
			cmd.Printf("%s: unavailable (%v)\n", s.Kind.Description(), s.Err)
			continue
		}
		cmd.Printf("%s: %d files\n", s.Kind.Description(), s.Total)
		for _, name := range sortedKeys(s.Counts) {
			cmd.Printf("  %-20s %d\n", name, s.Counts[name])
		}
		for _, name := range sortedKeys(s.Info) {
			cmd.Printf("  %-20s %d\n", strings.ReplaceAll(name, "_", " "), s.Info[name])
		}
	}
}

func printBuildResult(cmd *cobra.Command, r domain.BuildResult) {
	if !r.Success {
		cmd.Printf("Build failed after %s\n", r.Duration.Round(time.Millisecond))
		for _, e := range r.Errors {
			cmd.Printf("  - %s\n", e)
		}
		return
	}

	if r.IsPartial {
		cmd.Printf("Built partial corpus: %s\n", r.Name)
	} else {
		cmd.Printf("Built corpus: %s\n", r.Name)
	}
	cmd.Printf("  Documents: %d\n", r.TotalDocuments)
	cmd.Printf("  Chunks:    %d\n", r.TotalChunks)
	cmd.Printf("  Duration:  %s\n", r.Duration.Round(time.Millisecond))
	for i := range r.Ingests {
		in := r.Ingests[i]
		if in.Success {
			cmd.Printf("  %-18s %d added, %d failed, %d chunks\n", in.Kind.Description()+":", in.Added, in.Failed, in.ChunksCreated)
		} else {
			cmd.Printf("  %-18s failed: %v\n", in.Kind.Description()+":", in.Err)
		}
	}
	if len(r.Errors) > 0 {
		cmd.Println("  Errors:")
		for _, e := range r.Errors {
			cmd.Printf("    - %s\n", e)
		}
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
