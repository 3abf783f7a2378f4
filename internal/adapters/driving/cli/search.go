package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/folio/internal/core/domain"
)

const snippetWidth = 160

var (
	searchK       int
	searchContext []string
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search [name] [query]",
	Short: "Search a corpus",
	Long: `Returns the chunks of a corpus most similar to the query.

Use --context to steer the query with extra text; each entry is embedded
alongside the query within the model's input budget.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchK, "top", "k", 5, "number of results")
	searchCmd.Flags().StringArrayVarP(&searchContext, "context", "c", nil, "extra context for the query (repeatable)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errNotConfigured("search service")
	}

	name := args[0]
	query := strings.Join(args[1:], " ")
	opts := domain.SearchOptions{
		K:       searchK,
		Context: searchContext,
	}

	results, err := searchService.Search(cmd.Context(), name, query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		if results == nil {
			results = []domain.SearchResult{}
		}
		return printJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	for i := range results {
		c := results[i].Chunk
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, c.DocumentName, results[i].Score)
		cmd.Printf("      chunk %d/%d", c.Index+1, c.Total)
		if c.SourceTag != "" {
			cmd.Printf(" from %s", c.SourceTag)
		}
		if c.Tags != nil && c.Tags.Section != "" {
			cmd.Printf(", %s", c.Tags.Section)
		}
		cmd.Println()
		if c.Text != "" {
			cmd.Printf("      %s\n", truncate(c.Text, snippetWidth))
		}
		cmd.Println()
	}
	return nil
}
