// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/folio/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/folio/internal/adapters/driving/tui/styles"
)

// State represents the build state for display.
type State string

const (
	StateRunning    State = "running"
	StateCancelling State = "cancelling"
	StateComplete   State = "complete"
	StatePartial    State = "partial"
	StateFailed     State = "failed"
)

// Bar displays the build state, elapsed time and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	elapsed time.Duration
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateRunning,
		width:  80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Render(left + strings.Repeat(" ", padding) + right)
}

// renderLeft renders the state and elapsed time.
func (s *Bar) renderLeft() string {
	elapsed := s.elapsed.Round(time.Second)
	switch s.state {
	case StateCancelling:
		return s.styles.Warning.Render("Cancelling...")
	case StateComplete:
		return s.styles.Success.Render(fmt.Sprintf("Done in %s", elapsed))
	case StatePartial:
		return s.styles.Warning.Render(fmt.Sprintf("Partial build in %s", elapsed))
	case StateFailed:
		if s.message != "" {
			return s.styles.Error.Render(fmt.Sprintf("Failed: %s", s.message))
		}
		return s.styles.Error.Render("Failed")
	}
	return s.styles.Muted.Render(fmt.Sprintf("Running %s", elapsed))
}

// renderRight renders keybinding hints while the build runs.
func (s *Bar) renderRight() string {
	if s.state != StateRunning {
		return ""
	}

	bindings := s.keymap.ShortHelp()
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the failure message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// SetElapsed sets the elapsed build time.
func (s *Bar) SetElapsed(d time.Duration) {
	s.elapsed = d
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}
