package connectors

import (
	"context"
	"errors"
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
	stats   domain.BuildStats
	err     error
}

func (r *recordingTarget) Build(_ context.Context, folders []domain.FolderSpec, _ bool) (domain.BuildStats, error) {
	r.folders = append(r.folders, folders...)
	return r.stats, r.err
}

func TestIngestFolders(t *testing.T) {
	target := &recordingTarget{stats: domain.BuildStats{Documents: 4, Succeeded: 3, Failed: 1, ChunksAdded: 9}}
	folders := []domain.FolderSpec{{Tag: "literature", Path: "/papers"}}

	res := IngestFolders(context.Background(), domain.SourceLocal, target, folders)
	assert.True(t, res.Success)
	assert.Equal(t, domain.SourceLocal, res.Kind)
	assert.Equal(t, 3, res.Added)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 9, res.ChunksCreated)
	assert.Equal(t, folders, target.folders)
}

func TestIngestFolders_Failures(t *testing.T) {
	res := IngestFolders(context.Background(), domain.SourceAdHoc, &recordingTarget{}, nil)
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, domain.ErrSourceUnavailable)

	boom := errors.New("disk full")
	res = IngestFolders(context.Background(), domain.SourceAdHoc, &recordingTarget{err: boom},
		[]domain.FolderSpec{{Tag: "adhoc", Path: "/tmp"}})
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, boom)
}

func TestCountFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.tex", "c.docx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	scanner, err := filesystem.NewScanner([]string{".txt", ".tex"}, nil)
	require.NoError(t, err)

	counts, failed := CountFiles(context.Background(), scanner, []domain.FolderSpec{
		{Tag: "literature", Path: dir},
		{Tag: "gone", Path: filepath.Join(dir, "missing")},
	})
	assert.Equal(t, map[string]int{"literature": 2}, counts)
	require.Contains(t, failed, "gone")
	assert.ErrorIs(t, failed["gone"], domain.ErrSourceUnavailable)
	assert.Equal(t, 2, Sum(counts))
}
