package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/folio/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/folio/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/folio/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/folio/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/folio/internal/core/domain"
)

// BuildFunc runs one build and reports progress through the callback.
type BuildFunc func(ctx context.Context, progress domain.ProgressFunc) domain.BuildResult

// maxBarWidth caps the progress bar on wide terminals.
const maxBarWidth = 60

// App renders the progress of one build following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	title  string
	cancel context.CancelFunc

	styles  *styles.Styles
	keymap  *keymap.KeyMap
	bar     progress.Model
	spinner spinner.Model
	status  *status.Bar

	stages      []messages.Stage
	percent     float64
	result      *domain.BuildResult
	showDetails bool

	started time.Time
	now     func() time.Time
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a progress view. cancel is called when the user asks to
// stop the build.
func NewApp(title string, cancel context.CancelFunc) *App {
	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	theme := s.Theme()

	a := &App{
		title:   title,
		cancel:  cancel,
		styles:  s,
		keymap:  km,
		bar:     progress.New(progress.WithGradient(string(theme.Primary), string(theme.Secondary))),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Stage)),
		status:  status.NewBar(s, km),
		now:     time.Now,
	}
	a.started = a.now()
	a.bar.Width = maxBarWidth
	return a
}

// Init starts the spinner.
func (a *App) Init() tea.Cmd {
	return a.spinner.Tick
}

// Update handles build and terminal messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetWidth(msg.Width)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.Progress:
		a.percent = msg.Percent
		if n := len(a.stages); n == 0 || a.stages[n-1].Message != msg.Message {
			a.stages = append(a.stages, messages.Stage(msg))
		}
		return a, nil

	case messages.BuildFinished:
		result := msg.Result
		a.result = &result
		a.status.SetElapsed(a.now().Sub(a.started))
		switch {
		case !result.Success:
			a.status.SetState(status.StateFailed)
			if result.Err != nil {
				a.status.SetMessage(result.Err.Error())
			}
		case result.IsPartial:
			a.percent = 100
			a.status.SetState(status.StatePartial)
		default:
			a.percent = 100
			a.status.SetState(status.StateComplete)
		}
		return a, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		if a.result == nil {
			a.status.SetElapsed(a.now().Sub(a.started))
		}
		return a, cmd
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, a.keymap.Cancel):
		if a.result == nil && a.status.State() == status.StateRunning {
			a.status.SetState(status.StateCancelling)
			if a.cancel != nil {
				a.cancel()
			}
		}
	case keymap.Matches(key, a.keymap.Details):
		a.showDetails = !a.showDetails
	}
	return a, nil
}

// View renders the title, current stage, bar and status line.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render(a.title))
	b.WriteString("\n\n")

	stage := "Starting"
	if n := len(a.stages); n > 0 {
		stage = a.stages[n-1].Message
	}
	if a.result == nil {
		b.WriteString(a.spinner.View() + " ")
	}
	b.WriteString(a.styles.Stage.Render(stage))
	b.WriteString("\n\n")
	b.WriteString(a.bar.ViewAs(a.percent / 100))
	b.WriteString("\n")

	if a.showDetails && len(a.stages) > 1 {
		b.WriteString("\n")
		for _, s := range a.stages[:len(a.stages)-1] {
			b.WriteString(a.styles.Muted.Render(fmt.Sprintf("  %3.0f%%  %s", s.Percent, s.Message)))
			b.WriteString("\n")
		}
	}

	if a.result != nil && len(a.result.Errors) > 0 {
		b.WriteString("\n")
		for _, e := range a.result.Errors {
			b.WriteString(a.styles.Error.Render("  ! " + e))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(a.status.View())
	b.WriteString("\n")
	return b.String()
}

// SetWidth fits the bar and status line to the terminal.
func (a *App) SetWidth(width int) {
	a.status.SetWidth(width)
	a.bar.Width = min(max(width-4, 10), maxBarWidth)
}

// Percent returns the last reported progress.
func (a *App) Percent() float64 {
	return a.percent
}

// Stages returns the stage log in arrival order.
func (a *App) Stages() []messages.Stage {
	return a.stages
}

// Result returns the build outcome, or nil while the build runs.
func (a *App) Result() *domain.BuildResult {
	return a.result
}

// Run executes build in the background while rendering its progress.
// It returns once the build has finished, even when the user cancelled.
func Run(ctx context.Context, title string, build BuildFunc, opts ...tea.ProgramOption) (domain.BuildResult, error) {
	if build == nil {
		return domain.BuildResult{}, ErrMissingBuild
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app := NewApp(title, cancel)
	p := tea.NewProgram(app, opts...)

	done := make(chan domain.BuildResult, 1)
	go func() {
		result := build(ctx, func(message string, percent float64) {
			p.Send(messages.Progress{Message: message, Percent: percent})
		})
		done <- result
		p.Send(messages.BuildFinished{Result: result})
	}()

	_, runErr := p.Run()
	if runErr != nil {
		cancel()
	}
	result := <-done
	if runErr != nil {
		return result, fmt.Errorf("%w: %w", ErrInterrupted, runErr)
	}
	return result, nil
}
