package domain

import (
	"strings"
	"time"
)

// Document is the record of one ingested file.
// It is created once, never mutated, and appended to the corpus log
// whether extraction succeeded or not.
type Document struct {
	// ID is the unique identifier for the record.
	ID string `json:"id"`

	// Path is the absolute file path.
	Path string `json:"path"`

	// Name is the display name (the file's base name).
	Name string `json:"name"`

	// SourceTag names the folder or source the file came from.
	SourceTag string `json:"source_tag"`

	// Text is the extracted text. Empty on failure.
	Text string `json:"text,omitempty"`

	// WordCount is the number of whitespace-separated words in Text.
	WordCount int `json:"word_count"`

	// SizeBytes is the file size on disk.
	SizeBytes int64 `json:"size_bytes"`

	// ContentHash is the hex SHA-256 of the file bytes.
	ContentHash string `json:"content_hash,omitempty"`

	// Extractor names the normaliser that produced Text.
	Extractor string `json:"extractor,omitempty"`

	// ModifiedAt is the file's modification time.
	ModifiedAt time.Time `json:"modified_at"`

	// CreatedAt is the file's birth time, or its status change time on
	// filesystems that do not record one. Zero when neither is known.
	CreatedAt time.Time `json:"created_at,omitzero"`

	// ExtractedAt is when the record was created.
	ExtractedAt time.Time `json:"extracted_at"`

	// Success reports whether usable text was extracted.
	Success bool `json:"success"`

	// Error describes the failure when Success is false.
	Error string `json:"error,omitempty"`

	// DuplicateOf holds the path of an earlier document with the same
	// content hash. Duplicates are logged but never indexed.
	DuplicateOf string `json:"duplicate_of,omitempty"`
}

// Indexable reports whether the document should be chunked and embedded.
func (d Document) Indexable() bool {
	return d.Success && d.DuplicateOf == "" && strings.TrimSpace(d.Text) != ""
}

// SectionKind classifies the part of a paper a chunk belongs to.
type SectionKind string

// Recognised section kinds.
const (
	SectionAbstract     SectionKind = "abstract"
	SectionIntroduction SectionKind = "introduction"
	SectionMethods      SectionKind = "methods"
	SectionResults      SectionKind = "results"
	SectionDiscussion   SectionKind = "discussion"
	SectionConclusion   SectionKind = "conclusion"
	SectionReferences   SectionKind = "references"
	SectionBody         SectionKind = "body"
)

// StructureTags are recorded by the structure-aware chunker.
type StructureTags struct {
	// Section is the detected section kind.
	Section SectionKind `json:"section"`

	// HasEquation reports equation content in the chunk.
	HasEquation bool `json:"has_equation"`

	// HasCitation reports citation markers in the chunk.
	HasCitation bool `json:"has_citation"`

	// Confidence scores boundary quality in [0, 1].
	Confidence float64 `json:"confidence"`
}

// ChunkSource identifies the document a chunker is splitting.
type ChunkSource struct {
	Path      string
	Name      string
	SourceTag string
}

// Chunk is a bounded, contiguous span of one document's words.
// For a given document, indices are exactly 0..Total-1.
type Chunk struct {
	// DocumentPath is the owning document's path.
	DocumentPath string `json:"document_path"`

	// DocumentName is the owning document's display name.
	DocumentName string `json:"document_name"`

	// SourceTag is the owning document's source tag.
	SourceTag string `json:"source_tag"`

	// Index is the ordinal position within the document.
	Index int `json:"index"`

	// Total is the number of chunks produced for the document.
	Total int `json:"total"`

	// Text is the chunk text, words joined by single spaces.
	Text string `json:"text"`

	// StartWord and EndWord delimit the span in the document's word stream.
	StartWord int `json:"start_word"`
	EndWord   int `json:"end_word"`

	// Tags is set by the structure-aware chunker only.
	Tags *StructureTags `json:"tags,omitempty"`
}

// WordCount returns the number of words in the chunk.
func (c Chunk) WordCount() int {
	return c.EndWord - c.StartWord
}
