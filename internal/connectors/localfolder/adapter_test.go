package localfolder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/connectors/filesystem"
	"github.com/custodia-labs/folio/internal/core/domain"
)

type recordingTarget struct {
	folders []domain.FolderSpec
}

func (r *recordingTarget) Build(_ context.Context, folders []domain.FolderSpec, _ bool) (domain.BuildStats, error) {
	r.folders = append(r.folders, folders...)
	return domain.BuildStats{Documents: len(folders), Succeeded: len(folders)}, nil
}

func folderWith(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("content"), 0o644))
	}
	return dir
}

func newTestAdapter(t *testing.T, folders map[string]string) *Adapter {
	t.Helper()
	scanner, err := filesystem.NewScanner([]string{".txt", ".pdf"}, nil)
	require.NoError(t, err)
	return New(folders, scanner)
}

func TestAdapter_Folders(t *testing.T) {
	a := newTestAdapter(t, map[string]string{"literature": "/l", "current_drafts": "/d"})

	all := a.Folders(domain.SourceSelection{UseLocal: true})
	assert.Equal(t, []domain.FolderSpec{
		{Tag: "current_drafts", Path: "/d"},
		{Tag: "literature", Path: "/l"},
	}, all)

	some := a.Folders(domain.SourceSelection{UseLocal: true, LocalTags: []string{"literature", "unknown", "literature"}})
	assert.Equal(t, []domain.FolderSpec{{Tag: "literature", Path: "/l"}}, some)
}

func TestAdapter_Scan(t *testing.T) {
	lit := folderWith(t, "a.txt", "b.pdf", "c.docx")
	a := newTestAdapter(t, map[string]string{
		"literature": lit,
		"missing":    filepath.Join(t.TempDir(), "gone"),
	})

	res := a.Scan(context.Background(), domain.SourceSelection{UseLocal: true})
	require.True(t, res.Success, "a missing folder is skipped")
	assert.Equal(t, domain.SourceLocal, res.Kind)
	assert.Equal(t, map[string]int{"literature": 2}, res.Counts)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Info["skipped_folders"])
}

func TestAdapter_ScanNoUsableFolder(t *testing.T) {
	a := newTestAdapter(t, map[string]string{"missing": filepath.Join(t.TempDir(), "gone")})

	res := a.Scan(context.Background(), domain.SourceSelection{UseLocal: true})
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, domain.ErrSourceUnavailable)

	empty := newTestAdapter(t, nil).Scan(context.Background(), domain.SourceSelection{UseLocal: true})
	assert.ErrorIs(t, empty.Err, domain.ErrSourceUnavailable)
}

func TestAdapter_Ingest(t *testing.T) {
	lit := folderWith(t, "a.txt")
	drafts := folderWith(t, "b.txt")
	a := newTestAdapter(t, map[string]string{
		"literature":     lit,
		"current_drafts": drafts,
		"missing":        filepath.Join(t.TempDir(), "gone"),
	})

	target := &recordingTarget{}
	res := a.Ingest(context.Background(), target, domain.SourceSelection{UseLocal: true})
	require.True(t, res.Success)
	assert.Equal(t, []domain.FolderSpec{
		{Tag: "current_drafts", Path: drafts},
		{Tag: "literature", Path: lit},
	}, target.folders)
}
