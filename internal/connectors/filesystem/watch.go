package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/logger"
)

// Watcher reports changes to supported files below a root directory.
// New subdirectories are watched as they appear.
type Watcher struct {
	root    string
	scanner *Scanner

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher for root. Nothing is watched until Watch.
func NewWatcher(root string, scanner *Scanner) *Watcher {
	return &Watcher{root: root, scanner: scanner}
}

// Watch starts watching and returns a channel of changes. The channel is
// closed when ctx is cancelled or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) (<-chan domain.FileChange, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, errors.New("watcher is closed")
	}
	if err := Validate(ctx, w.root); err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.addTree(fw, w.root); err != nil {
		fw.Close()
		return nil, err
	}
	w.watcher = fw

	changes := make(chan domain.FileChange)
	go w.loop(ctx, fw, changes)
	return changes, nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, changes chan<- domain.FileChange) {
	defer close(changes)
	defer fw.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, event.Name); err != nil {
						logger.Warn("watch %s: %v", event.Name, err)
					}
					continue
				}
			}
			change, ok := w.handleFsEvent(event)
			if !ok {
				continue
			}
			select {
			case changes <- change:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error: %v", err)
		}
	}
}

// handleFsEvent maps an fsnotify event on a supported file to a change.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (domain.FileChange, bool) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || isHidden(rel) || !w.scanner.Supported(event.Name) {
		return domain.FileChange{}, false
	}

	switch {
	case event.Has(fsnotify.Create):
		return domain.FileChange{Type: domain.ChangeCreated, Path: event.Name}, true
	case event.Has(fsnotify.Write):
		return domain.FileChange{Type: domain.ChangeUpdated, Path: event.Name}, true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return domain.FileChange{Type: domain.ChangeDeleted, Path: event.Name}, true
	default:
		return domain.FileChange{}, false
	}
}

// addTree watches dir and every non-hidden directory below it.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && isHidden(filepath.Base(path)) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Close stops the watcher. Watch fails after Close.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}
