package pdf

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
	name   string
	args   []string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.name = name
	m.args = args
	return m.output, m.err
}

func fakePDF() *domain.RawFile {
	return &domain.RawFile{
		Path:     "/papers/bell.pdf",
		Ext:      ".pdf",
		MIMEType: "application/pdf",
		Content:  []byte("%PDF-1.4 fake pdf content"),
	}
}

func TestNew(t *testing.T) {
	normaliser := New(true)
	require.NotNil(t, normaliser)
	assert.True(t, normaliser.fallback)
	assert.Equal(t, "pdf", normaliser.Name())
}

func TestSupportedTypes(t *testing.T) {
	normaliser := New(false)
	assert.Equal(t, []string{".pdf"}, normaliser.SupportedExtensions())
	assert.Equal(t, []string{"application/pdf"}, normaliser.SupportedMIMETypes())
	assert.Equal(t, 50, normaliser.Priority())
}

func TestNormalise_NilFile(t *testing.T) {
	result, err := New(false).Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.Nil(t, result)
}

func TestNormalise_MalformedWithoutFallback(t *testing.T) {
	runner := &mockRunner{output: []byte("should not run")}
	normaliser := NewWithRunner(runner)
	normaliser.fallback = false

	result, err := normaliser.Normalise(context.Background(), fakePDF())
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.Nil(t, result)
	assert.Empty(t, runner.name)
}

func TestNormalise_FallsBackToPdftotext(t *testing.T) {
	runner := &mockRunner{output: []byte("Bell's theorem\n\nNo local hidden variables.\n")}
	normaliser := NewWithRunner(runner)

	result, err := normaliser.Normalise(context.Background(), fakePDF())
	require.NoError(t, err)
	assert.Equal(t, MethodPdftotext, result.Method)
	assert.Contains(t, result.Text, "No local hidden variables.")

	assert.Equal(t, "pdftotext", runner.name)
	require.Len(t, runner.args, 5)
	assert.Equal(t, "-", runner.args[4])
}

func TestNormalise_RunnerError(t *testing.T) {
	runner := &mockRunner{err: errors.New("pdftotext crashed")}

	result, err := NewWithRunner(runner).Normalise(context.Background(), fakePDF())
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.Contains(t, err.Error(), "pdftotext failed")
	assert.Nil(t, result)
}

func TestNormalise_ToolMissing(t *testing.T) {
	runner := &mockRunner{err: exec.ErrNotFound}

	_, err := NewWithRunner(runner).Normalise(context.Background(), fakePDF())
	assert.ErrorIs(t, err, ErrPDFToolNotFound)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestNormalise_EmptyFallbackOutput(t *testing.T) {
	runner := &mockRunner{output: []byte("  \n\f ")}

	_, err := NewWithRunner(runner).Normalise(context.Background(), fakePDF())
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.Contains(t, err.Error(), "no extractable text")
}

func TestReadText_Garbage(t *testing.T) {
	_, err := readText([]byte("not a pdf"))
	assert.Error(t, err)
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestErrPDFToolNotFound(t *testing.T) {
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}
