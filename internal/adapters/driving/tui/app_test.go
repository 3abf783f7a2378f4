package tui

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/folio/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/folio/internal/core/domain"
)

func TestNewApp(t *testing.T) {
	app := NewApp("Building physics", nil)

	assert.NotNil(t, app.Init())
	assert.Nil(t, app.Result())
	assert.Zero(t, app.Percent())
	assert.Contains(t, app.View(), "Building physics")
	assert.Contains(t, app.View(), "Starting")
}

func TestApp_Progress(t *testing.T) {
	app := NewApp("Building physics", nil)

	app.Update(messages.Progress{Message: "Validating request", Percent: 5})
	app.Update(messages.Progress{Message: "Scanning sources", Percent: 10})
	app.Update(messages.Progress{Message: "Scanning sources", Percent: 10})

	assert.Equal(t, 10.0, app.Percent())
	require.Len(t, app.Stages(), 2, "repeated stages are collapsed")
	assert.Contains(t, app.View(), "Scanning sources")
	assert.NotContains(t, app.View(), "Validating request", "stage log hidden by default")

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	assert.Contains(t, app.View(), "Validating request")
}

func TestApp_Finished(t *testing.T) {
	tests := []struct {
		name   string
		result domain.BuildResult
		state  status.State
		view   string
	}{
		{"complete", domain.BuildResult{Success: true, Name: "physics"}, status.StateComplete, "Done in"},
		{"partial", domain.BuildResult{Success: true, IsPartial: true, Errors: []string{"remote_library: unavailable"}}, status.StatePartial, "remote_library: unavailable"},
		{"failed", domain.BuildResult{Err: domain.ErrNoDocuments}, status.StateFailed, "Failed: no documents"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewApp("Building", nil)
			_, cmd := app.Update(messages.BuildFinished{Result: tt.result})

			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
			require.NotNil(t, app.Result())
			assert.Equal(t, tt.state, app.status.State())
			assert.Contains(t, app.View(), tt.view)
		})
	}
}

func TestApp_CancelKey(t *testing.T) {
	cancelled := 0
	app := NewApp("Building", func() { cancelled++ })

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	assert.Equal(t, 1, cancelled, "cancel fires once")
	assert.Equal(t, status.StateCancelling, app.status.State())
	assert.Contains(t, app.View(), "Cancelling")
}

func TestApp_WindowSize(t *testing.T) {
	app := NewApp("Building", nil)

	app.Update(tea.WindowSizeMsg{Width: 200, Height: 40})
	assert.Equal(t, maxBarWidth, app.bar.Width)
	assert.Equal(t, 200, app.status.Width())

	app.Update(tea.WindowSizeMsg{Width: 30, Height: 10})
	assert.Equal(t, 26, app.bar.Width)
}

func headless() []tea.ProgramOption {
	return []tea.ProgramOption{tea.WithInput(nil), tea.WithOutput(io.Discard), tea.WithoutRenderer()}
}

func TestRun(t *testing.T) {
	build := func(_ context.Context, progress domain.ProgressFunc) domain.BuildResult {
		progress("Scanning sources", 10)
		progress("Finalizing", 85)
		return domain.BuildResult{Success: true, Name: "physics", TotalDocuments: 3}
	}

	result, err := Run(context.Background(), "Building physics", build, headless()...)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.TotalDocuments)
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	build := func(ctx context.Context, _ domain.ProgressFunc) domain.BuildResult {
		cancel()
		<-ctx.Done()
		return domain.BuildResult{Err: ctx.Err()}
	}

	done := make(chan struct{})
	var result domain.BuildResult
	go func() {
		defer close(done)
		result, _ = Run(ctx, "Building", build, headless()...)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.True(t, errors.Is(result.Err, context.Canceled))
}

func TestRun_MissingBuild(t *testing.T) {
	_, err := Run(context.Background(), "Building", nil)
	assert.ErrorIs(t, err, ErrMissingBuild)
}
