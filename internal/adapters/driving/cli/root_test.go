package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "folio", rootCmd.Use)
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	want := []string{"list", "info", "create", "delete", "rename", "migrate", "add", "search", "watch", "mcp", "config", "version"}

	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, w := range want {
		assert.True(t, names[w], "missing command %s", w)
	}
}

func TestRootCmd_BootstrapInstallsServices(t *testing.T) {
	ts := setupTestServices(t)
	SetServices(nil)

	var got Options
	SetBootstrap(func(_ context.Context, opts Options) (*Services, error) {
		got = opts
		return &Services{Manager: ts.manager}, nil
	})
	defer SetBootstrap(nil)

	_, err := executeCommand(t, "", "--base-dir", "/data/corpora", "--config", "/etc/folio.toml", "list")

	require.NoError(t, err)
	assert.Equal(t, "/data/corpora", got.BaseDir)
	assert.Equal(t, "/etc/folio.toml", got.ConfigPath)
	assert.False(t, got.SettingsOnly)
}

func TestRootCmd_BootstrapSettingsOnlyForConfig(t *testing.T) {
	ts := setupTestServices(t)

	var got Options
	SetBootstrap(func(_ context.Context, opts Options) (*Services, error) {
		got = opts
		return &Services{Settings: ts.settings}, nil
	})
	defer SetBootstrap(nil)

	_, err := executeCommand(t, "", "config", "path")

	require.NoError(t, err)
	assert.True(t, got.SettingsOnly)
}

func TestRootCmd_BootstrapChecksEmbeddingForSearch(t *testing.T) {
	ts := setupTestServices(t)

	var got Options
	SetBootstrap(func(_ context.Context, opts Options) (*Services, error) {
		got = opts
		return &Services{Search: ts.search}, nil
	})
	defer SetBootstrap(nil)

	_, _ = executeCommand(t, "", "search", "physics", "entanglement")

	assert.True(t, got.CheckEmbedding)
	assert.False(t, got.SettingsOnly)
}

func TestNeedsEmbedding(t *testing.T) {
	assert.True(t, needsEmbedding(searchCmd))
	assert.True(t, needsEmbedding(addCmd))
	assert.True(t, needsEmbedding(createCmd))
	assert.False(t, needsEmbedding(listCmd))
	assert.False(t, needsEmbedding(configShowCmd))

	require.NoError(t, createCmd.Flags().Set("dry-run", "true"))
	defer func() { _ = createCmd.Flags().Set("dry-run", "false") }()
	assert.False(t, needsEmbedding(createCmd), "a dry run only scans")
}

func TestRootCmd_BootstrapError(t *testing.T) {
	setupTestServices(t)
	SetBootstrap(func(context.Context, Options) (*Services, error) {
		return nil, errors.New("bad config")
	})
	defer SetBootstrap(nil)

	_, err := executeCommand(t, "", "list")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad config")
}

func TestRootCmd_NotConfigured(t *testing.T) {
	setupTestServices(t)
	SetServices(nil)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"list"}, "corpus manager not configured"},
		{[]string{"info", "x"}, "corpus manager not configured"},
		{[]string{"create", "x", "--local", "all"}, "build orchestrator not configured"},
		{[]string{"search", "x", "query"}, "search service not configured"},
		{[]string{"watch", "x", "/tmp"}, "corpus manager not configured"},
		{[]string{"config", "list"}, "settings service not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			_, err := executeCommand(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTeardown_ClosesOnce(t *testing.T) {
	calls := 0
	SetServices(&Services{Close: func() error {
		calls++
		return nil
	}})
	defer SetServices(nil)

	require.NoError(t, teardown())
	require.NoError(t, teardown())
	assert.Equal(t, 1, calls)
}
