package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/core/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestScanner(t *testing.T, exclude ...string) *Scanner {
	t.Helper()
	s, err := NewScanner([]string{".pdf", ".tex", "TXT"}, exclude)
	require.NoError(t, err)
	return s
}

func TestNewScanner(t *testing.T) {
	s := newTestScanner(t)
	assert.Equal(t, []string{".pdf", ".tex", ".txt"}, s.Extensions())

	_, err := NewScanner([]string{".txt"}, []string{"[unclosed"})
	assert.ErrorIs(t, err, domain.ErrConfigInvalid)
}

func TestScanner_Scan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.txt"), "b")
	writeFile(t, filepath.Join(root, "a.tex"), "a")
	writeFile(t, filepath.Join(root, "sub", "c.PDF"), "c")
	writeFile(t, filepath.Join(root, "notes.docx"), "ignored")
	writeFile(t, filepath.Join(root, ".hidden.txt"), "hidden")
	writeFile(t, filepath.Join(root, ".git", "d.txt"), "hidden dir")

	files, err := newTestScanner(t).Scan(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "a.tex"),
		filepath.Join(root, "b.txt"),
		filepath.Join(root, "sub", "c.PDF"),
	}, files)
}

func TestScanner_ScanExclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.txt"), "k")
	writeFile(t, filepath.Join(root, "drafts", "old", "skip.txt"), "s")
	writeFile(t, filepath.Join(root, "scratch.tex"), "s")

	files, err := newTestScanner(t, "drafts/**", "*.tex").Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "keep.txt")}, files)
}

func TestScanner_ScanEmptyDirectory(t *testing.T) {
	files, err := newTestScanner(t).Scan(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScanner_ScanMissingRoot(t *testing.T) {
	_, err := newTestScanner(t).Scan(context.Background(), "/non/existent/path/12345")
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestScanner_ScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestScanner(t).Scan(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanner_Supported(t *testing.T) {
	s := newTestScanner(t)
	assert.True(t, s.Supported("/home/me/.folio/documents/paper.pdf"))
	assert.True(t, s.Supported("notes.TXT"))
	assert.False(t, s.Supported("/docs/.draft.tex"))
	assert.False(t, s.Supported("/docs/report.docx"))
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	writeFile(t, file, "content")

	tests := []struct {
		name          string
		path          string
		errorContains string
	}{
		{"valid directory", dir, ""},
		{"missing path", "/non/existent/path/12345", "does not exist"},
		{"file instead of directory", file, "not a directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(context.Background(), tt.path)
			if tt.errorContains == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}

	t.Run("context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Equal(t, context.Canceled, Validate(ctx, dir))
	})
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".hidden", true},
		{"path/to/.hidden", true},
		{"dir/.git/config", true},
		{"file.txt", false},
		{"path/to/file.txt", false},
		{".", false},
		{"..", false},
		{"path/../file", false},
		{"", false},
		{"file.hidden", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}

func TestWatcher_HandleFsEvent(t *testing.T) {
	root := t.TempDir()
	w := NewWatcher(root, newTestScanner(t))

	tests := []struct {
		name   string
		path   string
		op     fsnotify.Op
		ok     bool
		change domain.ChangeType
	}{
		{"create", filepath.Join(root, "a.txt"), fsnotify.Create, true, domain.ChangeCreated},
		{"write", filepath.Join(root, "a.txt"), fsnotify.Write, true, domain.ChangeUpdated},
		{"remove", filepath.Join(root, "a.txt"), fsnotify.Remove, true, domain.ChangeDeleted},
		{"rename", filepath.Join(root, "a.txt"), fsnotify.Rename, true, domain.ChangeDeleted},
		{"chmod ignored", filepath.Join(root, "a.txt"), fsnotify.Chmod, false, 0},
		{"unsupported extension", filepath.Join(root, "a.docx"), fsnotify.Create, false, 0},
		{"hidden directory", filepath.Join(root, ".cache", "a.txt"), fsnotify.Create, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change, ok := w.handleFsEvent(fsnotify.Event{Name: tt.path, Op: tt.op})
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.change, change.Type)
				assert.Equal(t, tt.path, change.Path)
			}
		})
	}
}

func TestWatcher_Watch(t *testing.T) {
	t.Run("reports created files", func(t *testing.T) {
		root := t.TempDir()
		w := NewWatcher(root, newTestScanner(t))
		defer w.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := w.Watch(ctx)
		require.NoError(t, err)

		go func() {
			time.Sleep(50 * time.Millisecond)
			os.WriteFile(filepath.Join(root, "new-paper.txt"), []byte("content"), 0o644)
		}()

		select {
		case change := <-changes:
			assert.Equal(t, domain.ChangeCreated, change.Type)
			assert.Contains(t, change.Path, "new-paper.txt")
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for file change event")
		}
	})

	t.Run("missing root", func(t *testing.T) {
		w := NewWatcher("/non/existent/path", newTestScanner(t))
		changes, err := w.Watch(context.Background())
		assert.Nil(t, changes)
		assert.ErrorContains(t, err, "root path error")
	})

	t.Run("closes channel on cancel", func(t *testing.T) {
		w := NewWatcher(t.TempDir(), newTestScanner(t))
		defer w.Close()

		ctx, cancel := context.WithCancel(context.Background())
		changes, err := w.Watch(ctx)
		require.NoError(t, err)
		cancel()

		select {
		case _, ok := <-changes:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("channel did not close after context cancellation")
		}
	})

	t.Run("closed watcher", func(t *testing.T) {
		w := NewWatcher(t.TempDir(), newTestScanner(t))
		require.NoError(t, w.Close())

		_, err := w.Watch(context.Background())
		assert.ErrorContains(t, err, "closed")
	})
}
