package domain

// RawFile represents the opaque bytes of one file handed to a normaliser.
type RawFile struct {
	// Path is the file path on disk.
	Path string

	// Ext is the lowercase extension including the dot (e.g. ".tex").
	Ext string

	// MIMEType is the sniffed content type (e.g. "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// ChangeType represents the type of file change seen by a watcher.
type ChangeType int

const (
	// ChangeCreated indicates a new file.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified file.
	ChangeUpdated

	// ChangeDeleted indicates a removed file.
	ChangeDeleted
)

// FileChange represents a change event from a folder watcher.
type FileChange struct {
	// Type is the kind of change.
	Type ChangeType

	// Path is the affected file.
	Path string
}
