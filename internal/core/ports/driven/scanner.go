package driven

import "context"

// FileScanner lists extractable files below a directory.
type FileScanner interface {
	// Scan returns absolute paths of supported files under root in
	// lexical order. Hidden files and directories are skipped.
	// Returns domain.ErrSourceUnavailable if root cannot be read.
	Scan(ctx context.Context, root string) ([]string, error)

	// Supported reports whether path has a supported extension and is
	// not a hidden file.
	Supported(path string) bool
}
