package cli

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// mockCorpusManager records calls and returns canned values.
type mockCorpusManager struct {
	mu sync.Mutex

	corpora       []domain.CorpusInfo
	stats         domain.CorpusStats
	existing      map[string]bool
	addDoc        domain.Document
	migrateResult domain.MigrateResult
	err           error

	added       []string
	addedTags   []string
	deleted     []string
	renamed     [][2]string
	migrateOpts domain.MigrateOptions
}

func (m *mockCorpusManager) List(_ context.Context) ([]domain.CorpusInfo, error) {
	return m.corpora, m.err
}

func (m *mockCorpusManager) Info(_ context.Context, name string) (domain.CorpusStats, error) {
	if m.err != nil {
		return domain.CorpusStats{}, m.err
	}
	s := m.stats
	if s.Name == "" {
		s.Name = name
	}
	return s, nil
}

func (m *mockCorpusManager) Describe(_ context.Context, name string) (domain.Descriptor, error) {
	if !m.existing[name] {
		return domain.Descriptor{}, domain.ErrCorpusNotFound
	}
	return domain.Descriptor{Name: name}, nil
}

func (m *mockCorpusManager) CreateEmpty(_ context.Context, name string) (domain.Descriptor, error) {
	return domain.Descriptor{Name: name}, m.err
}

func (m *mockCorpusManager) AddFile(_ context.Context, _, path, tag string) (domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added = append(m.added, path)
	m.addedTags = append(m.addedTags, tag)
	doc := m.addDoc
	if doc.Path == "" {
		doc.Path = path
	}
	return doc, m.err
}

func (m *mockCorpusManager) Delete(_ context.Context, name string) error {
	m.deleted = append(m.deleted, name)
	return m.err
}

func (m *mockCorpusManager) Rename(_ context.Context, oldName, newName string) error {
	m.renamed = append(m.renamed, [2]string{oldName, newName})
	return m.err
}

func (m *mockCorpusManager) Migrate(_ context.Context, _ string, opts domain.MigrateOptions) (domain.MigrateResult, error) {
	m.migrateOpts = opts
	return m.migrateResult, m.err
}

func (m *mockCorpusManager) addedPaths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.added...)
}

// mockOrchestrator captures the build request.
type mockOrchestrator struct {
	scans  []domain.ScanResult
	result domain.BuildResult

	request   domain.BuildRequest
	selection domain.SourceSelection
	runs      int
}

func (m *mockOrchestrator) Preview(_ context.Context, sel domain.SourceSelection) []domain.ScanResult {
	m.selection = sel
	return m.scans
}

func (m *mockOrchestrator) Run(_ context.Context, req domain.BuildRequest, progress domain.ProgressFunc) domain.BuildResult {
	m.runs++
	m.request = req
	if progress != nil {
		progress("Scanning sources", 5)
		progress("Done", 100)
	}
	return m.result
}

// mockSearchService returns canned results.
type mockSearchService struct {
	results []domain.SearchResult
	err     error

	corpus string
	query  string
	opts   domain.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, corpus, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.corpus, m.query, m.opts = corpus, query, opts
	return m.results, m.err
}

func (m *mockSearchService) Statistics(_ context.Context, corpus string) (domain.CorpusStats, error) {
	return domain.CorpusStats{Name: corpus}, m.err
}

// mockSettingsService stores values in a map.
type mockSettingsService struct {
	path   string
	values map[string]any
	cfg    domain.Config
	err    error
}

func (m *mockSettingsService) Path() string { return m.path }

func (m *mockSettingsService) List() []domain.Setting {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]domain.Setting, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.Setting{Key: k, Value: m.values[k]})
	}
	return out
}

func (m *mockSettingsService) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *mockSettingsService) Effective() (domain.Config, error) {
	return m.cfg, m.err
}

func (m *mockSettingsService) Set(key string, value any) error {
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

// mockWatcher replays changes and closes the channel.
type mockWatcher struct {
	changes []domain.FileChange
	closed  bool
	err     error
}

func (m *mockWatcher) Watch(_ context.Context) (<-chan domain.FileChange, error) {
	if m.err != nil {
		return nil, m.err
	}
	ch := make(chan domain.FileChange, len(m.changes))
	for _, c := range m.changes {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func (m *mockWatcher) Close() error {
	m.closed = true
	return nil
}

type testServices struct {
	manager      *mockCorpusManager
	orchestrator *mockOrchestrator
	search       *mockSearchService
	settings     *mockSettingsService
	watcher      *mockWatcher
	watchedRoot  string
}

// setupTestServices installs mocks for every service and restores the
// package state when the test ends.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	ts := &testServices{
		manager:      &mockCorpusManager{existing: map[string]bool{}},
		orchestrator: &mockOrchestrator{},
		search:       &mockSearchService{},
		settings:     &mockSettingsService{path: "/tmp/folio/config.toml", values: map[string]any{}},
		watcher:      &mockWatcher{},
	}

	SetServices(&Services{
		Manager:      ts.manager,
		Orchestrator: ts.orchestrator,
		Search:       ts.search,
		Settings:     ts.settings,
		NewWatcher: func(root string) (Watcher, error) {
			ts.watchedRoot = root
			return ts.watcher, nil
		},
	})
	SetBootstrap(nil)

	origTerminal := isTerminal
	isTerminal = func() bool { return false }

	t.Cleanup(func() {
		SetServices(nil)
		isTerminal = origTerminal
	})
	return ts
}

// executeCommand runs the root command with args and returns everything
// written to stdout and stderr.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// resetFlags restores every flag to its default so tests do not see
// values parsed by earlier tests.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
