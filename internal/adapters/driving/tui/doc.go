// Package tui renders the progress of a long corpus build in the
// terminal.
//
// The build runs in its own goroutine. Progress callbacks become
// messages.Progress values, and the final result arrives as
// messages.BuildFinished, after which the program exits so the caller can
// print a plain summary. Pressing esc cancels the build context; the
// orchestrator then returns without persisting anything.
package tui
