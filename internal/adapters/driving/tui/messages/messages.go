// Package messages defines Bubbletea message types for the TUI.
// Messages represent events that flow from a running build into the view.
package messages

import (
	"github.com/custodia-labs/folio/internal/core/domain"
)

// Progress reports one checkpoint of a running build.
type Progress struct {
	Message string
	Percent float64
}

// BuildFinished carries the outcome of the build. The view quits after
// receiving it.
type BuildFinished struct {
	Result domain.BuildResult
}

// Stage is one entry of the stage log.
type Stage struct {
	Message string
	Percent float64
}
