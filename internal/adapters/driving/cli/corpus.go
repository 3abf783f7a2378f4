package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/folio/internal/core/domain"
)

var (
	listJSON   bool
	infoJSON   bool
	deleteYes  bool
	migrateOpt domain.MigrateOptions
	addTag     string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List corpora",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var infoCmd = &cobra.Command{
	Use:   "info [name]",
	Short: "Show corpus statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a corpus and all its files",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var renameCmd = &cobra.Command{
	Use:   "rename [old] [new]",
	Short: "Rename a corpus",
	Args:  cobra.ExactArgs(2),
	RunE:  runRename,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate [name]",
	Short: "Upgrade a corpus to the current layout and embedding model",
	Long: `Brings a corpus up to date.

  --legacy   imports a flat <base>/<name>.db snapshot into its own directory
  --reembed  re-embeds every chunk with the configured embedding model

Without flags both steps run when they are needed.`,
	Args: cobra.ExactArgs(1),
	RunE: runMigrate,
}

var addCmd = &cobra.Command{
	Use:   "add [name] [file]",
	Short: "Add one file to a corpus",
	Long: `Extracts one file, indexes it and saves the corpus. A file whose content
is already in the corpus is recorded as a duplicate and not indexed again.`,
	Args: cobra.ExactArgs(2),
	RunE: runAdd,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "output as JSON")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "do not ask for confirmation")
	migrateCmd.Flags().BoolVar(&migrateOpt.Legacy, "legacy", false, "import a legacy flat snapshot")
	migrateCmd.Flags().BoolVar(&migrateOpt.Reembed, "reembed", false, "re-embed with the configured model")
	addCmd.Flags().StringVarP(&addTag, "tag", "t", "adhoc", "source tag recorded on the document")

	rootCmd.AddCommand(listCmd, infoCmd, deleteCmd, renameCmd, migrateCmd, addCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	if corpusManager == nil {
		return errNotConfigured("corpus manager")
	}

	list, err := corpusManager.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list corpora: %w", err)
	}

	if listJSON {
		return printJSON(cmd, list)
	}
	if len(list) == 0 {
		cmd.Println("No corpora found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDOCUMENTS\tCHUNKS\tMODEL\tSIZE\tUPDATED")
	for i := range list {
		c := list[i]
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\n",
			c.Name, c.DocumentCount, c.ChunkCount, c.EmbeddingModel,
			humanize.Bytes(uint64(max(c.SizeBytes, 0))), humanize.Time(c.UpdatedAt))
	}
	return w.Flush()
}

func runInfo(cmd *cobra.Command, args []string) error {
	if corpusManager == nil {
		return errNotConfigured("corpus manager")
	}

	stats, err := corpusManager.Info(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}

	if infoJSON {
		return printJSON(cmd, stats)
	}

	cmd.Printf("Corpus: %s\n\n", stats.Name)
	cmd.Printf("  Path:        %s\n", stats.Path)
	cmd.Printf("  Model:       %s (%d dimensions)\n", stats.Index.Model, stats.Index.Dimensions)
	cmd.Printf("  Documents:   %d (%d ok, %d failed, %d duplicates)\n",
		stats.TotalDocuments, stats.SuccessfulDocuments, stats.FailedDocuments, stats.DuplicateDocuments)
	cmd.Printf("  Success:     %.1f%%\n", stats.SuccessRate*100)
	cmd.Printf("  Words:       %s (%.0f per document)\n", humanize.Comma(int64(stats.TotalWords)), stats.AvgWordsPerDocument)
	cmd.Printf("  Text size:   %s\n", humanize.Bytes(uint64(max(stats.TotalBytes, 0))))
	cmd.Printf("  Chunks:      %d (%.0f words on average)\n", stats.Index.TotalChunks, stats.Index.AvgChunkWords)
	if !stats.CreatedAt.IsZero() {
		cmd.Printf("  Created:     %s\n", stats.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	if !stats.UpdatedAt.IsZero() {
		cmd.Printf("  Updated:     %s\n", stats.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	if len(stats.Sources) > 0 {
		tags := make([]string, 0, len(stats.Sources))
		for tag := range stats.Sources {
			tags = append(tags, tag)
		}
		sort.Strings(tags)

		cmd.Println("\n  Sources:")
		for _, tag := range tags {
			s := stats.Sources[tag]
			cmd.Printf("    %-20s %d documents (%d ok), %d chunks\n", tag, s.Documents, s.Successful, s.Chunks)
		}
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if corpusManager == nil {
		return errNotConfigured("corpus manager")
	}
	name := args[0]

	if !deleteYes && !confirm(cmd, fmt.Sprintf("Delete corpus %q and all its files?", name)) {
		cmd.Println("Aborted.")
		return nil
	}

	if err := corpusManager.Delete(cmd.Context(), name); err != nil {
		return fmt.Errorf("failed to delete corpus: %w", err)
	}
	cmd.Printf("Deleted corpus: %s\n", name)
	return nil
}

func runRename(cmd *cobra.Command, args []string) error {
	if corpusManager == nil {
		return errNotConfigured("corpus manager")
	}

	if err := corpusManager.Rename(cmd.Context(), args[0], args[1]); err != nil {
		return fmt.Errorf("failed to rename corpus: %w", err)
	}
	cmd.Printf("Renamed corpus %s to %s\n", args[0], args[1])
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if corpusManager == nil {
		return errNotConfigured("corpus manager")
	}

	res, err := corpusManager.Migrate(cmd.Context(), args[0], migrateOpt)
	if err != nil {
		return fmt.Errorf("failed to migrate corpus: %w", err)
	}

	if !res.Imported && res.Reembedded == 0 {
		cmd.Printf("Corpus %s is up to date.\n", args[0])
		return nil
	}
	if res.Imported {
		cmd.Printf("Imported legacy snapshot for %s\n", args[0])
	}
	if res.Reembedded > 0 {
		cmd.Printf("Re-embedded %d chunks: %s -> %s\n", res.Reembedded, res.FromModel, res.ToModel)
	}
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	if corpusManager == nil {
		return errNotConfigured("corpus manager")
	}

	doc, err := corpusManager.AddFile(cmd.Context(), args[0], args[1], addTag)
	if err != nil {
		return fmt.Errorf("failed to add file: %w", err)
	}

	switch {
	case !doc.Success:
		cmd.Printf("Could not extract %s: %s\n", doc.Name, doc.Error)
	case doc.DuplicateOf != "":
		cmd.Printf("%s duplicates %s, not indexed again\n", doc.Name, doc.DuplicateOf)
	default:
		cmd.Printf("Added %s (%d words)\n", doc.Name, doc.WordCount)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
