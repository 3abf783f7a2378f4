package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
	_, statErr := os.Stat(store.Path())
	assert.True(t, os.IsNotExist(statErr), "file is only written on save")
}

func TestNewConfigStoreFile_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "custom.toml")

	store, err := NewConfigStoreFile(path)
	require.NoError(t, err)
	require.NoError(t, store.Save())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestConfigStore_LoadsNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
base_dir = "/data/corpora"

[chunking]
size = 800
strategy = "fixed-window"

[extraction]
extensions = [".pdf", ".tex"]
pdf_tool_fallback = false

[sources.local_folders]
literature = "/papers"
drafts = "/drafts"
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0o600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "/data/corpora", store.GetString("base_dir"))
	assert.Equal(t, 800, store.GetInt("chunking.size"))
	assert.Equal(t, "fixed-window", store.GetString("chunking.strategy"))
	assert.Equal(t, []string{".pdf", ".tex"}, store.GetStringSlice("extraction.extensions"))
	assert.False(t, store.GetBool("extraction.pdf_tool_fallback"))
	assert.Equal(t, []string{"drafts", "literature"}, store.Keys("sources.local_folders"))
	assert.Equal(t, "/papers", store.GetString("sources.local_folders.literature"))
}

func TestConfigStore_PersistenceRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("chunking.size", 640))
	require.NoError(t, store.Set("search.top_k", 5))
	require.NoError(t, store.Set("embedding.provider", "ollama"))

	reopened, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 640, reopened.GetInt("chunking.size"))
	assert.Equal(t, 5, reopened.GetInt("search.top_k"))
	assert.Equal(t, "ollama", reopened.GetString("embedding.provider"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[chunking]")
}

func TestConfigStore_Getters_WrongType(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("value", "text"))

	assert.Equal(t, 0, store.GetInt("value"))
	assert.False(t, store.GetBool("value"))
	assert.Nil(t, store.GetStringSlice("value"))
	assert.Equal(t, "", store.GetString("missing"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("base_dir", "/x"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestNewConfigStore_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("invalid [[[ toml"), 0o600))

	_, err := NewConfigStore(tmpDir)
	assert.Error(t, err)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("search.top_k", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("search.top_k")
		}()
	}
	wg.Wait()
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"base_dir":      "/b",
		"chunking.size": 10,
		"a.b.c":         true,
	})

	assert.Equal(t, "/b", nested["base_dir"])
	assert.Equal(t, map[string]any{"size": 10}, nested["chunking"])
	assert.Equal(t, map[string]any{"b": map[string]any{"c": true}}, nested["a"])
	assert.Equal(t, map[string]any{"base_dir": "/b", "chunking.size": 10, "a.b.c": true}, flattenMap(nested, ""))
}
