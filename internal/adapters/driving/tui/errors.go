package tui

import "errors"

// ErrMissingBuild is returned when no build function is provided.
var ErrMissingBuild = errors.New("tui: build function is required")

// ErrInterrupted is returned when the view exits before the build reports
// a result.
var ErrInterrupted = errors.New("tui: interrupted")
