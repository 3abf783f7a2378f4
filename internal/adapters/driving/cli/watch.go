package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/logger"
)

var (
	watchTag      string
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [name] [dir]",
	Short: "Add new and changed files in a folder to a corpus",
	Long: `Watches a folder and adds every supported file that is created or
modified to the corpus. A changed file replaces its earlier chunks; a file
whose content is already indexed is recorded as a duplicate. Runs until
interrupted.`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchTag, "tag", "t", "adhoc", "source tag recorded on added documents")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", time.Second, "quiet period before a changed file is added")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if corpusManager == nil {
		return errNotConfigured("corpus manager")
	}
	if newWatcher == nil {
		return errNotConfigured("folder watcher")
	}

	name, dir := args[0], args[1]
	ctx := cmd.Context()

	if _, err := corpusManager.Describe(ctx, name); err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}

	w, err := newWatcher(dir)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	changes, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	cmd.Printf("Watching %s for %s (Ctrl+C to stop)\n", dir, name)
	return watchLoop(ctx, cmd, name, changes)
}

// watchLoop batches changes per path and adds a file once it has been
// quiet for the debounce period.
func watchLoop(ctx context.Context, cmd *cobra.Command, name string, changes <-chan domain.FileChange) error {
	debounce := watchDebounce
	if debounce <= 0 {
		debounce = time.Millisecond
	}
	ticker := time.NewTicker(debounce / 2)
	defer ticker.Stop()

	pending := make(map[string]time.Time)
	flush := func(all bool) {
		now := time.Now()
		var ready []string
		for path, seen := range pending {
			if all || now.Sub(seen) >= debounce {
				ready = append(ready, path)
			}
		}
		sort.Strings(ready)
		for _, path := range ready {
			delete(pending, path)
			addWatched(ctx, cmd, name, path)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case change, ok := <-changes:
			if !ok {
				flush(true)
				return nil
			}
			switch change.Type {
			case domain.ChangeCreated, domain.ChangeUpdated:
				pending[change.Path] = time.Now()
			case domain.ChangeDeleted:
				delete(pending, change.Path)
				logger.Debug("ignoring removal of %s", change.Path)
			}

		case <-ticker.C:
			flush(false)
		}
	}
}

func addWatched(ctx context.Context, cmd *cobra.Command, name, path string) {
	if ctx.Err() != nil {
		return
	}
	doc, err := corpusManager.AddFile(ctx, name, path, watchTag)
	if err != nil {
		logger.Warn("failed to add %s: %v", path, err)
		return
	}
	switch {
	case !doc.Success:
		cmd.Printf("  skipped %s: %s\n", filepath.Base(path), doc.Error)
	case doc.DuplicateOf != "":
		cmd.Printf("  duplicate %s (same as %s)\n", filepath.Base(path), doc.DuplicateOf)
	default:
		cmd.Printf("  added %s (%d words)\n", doc.Name, doc.WordCount)
	}
}
