package domain

import "time"

// Descriptor is the persisted identity of one corpus.
// A directory without a descriptor is not a valid corpus.
type Descriptor struct {
	// Name is the corpus name, which is also its directory name.
	Name string `json:"name"`

	// EmbeddingModel identifies the model every vector was produced with.
	EmbeddingModel string `json:"embedding_model"`

	// Dimensions is the vector dimensionality fixed by the model.
	Dimensions int `json:"dimensions"`

	// ChunkSize is the target chunk length in words.
	ChunkSize int `json:"chunk_size"`

	// ChunkOverlap is the overlap between consecutive chunks in words.
	ChunkOverlap int `json:"chunk_overlap"`

	// ChunkStrategy is the chunker used to build the corpus.
	ChunkStrategy ChunkStrategy `json:"chunk_strategy"`

	// DocumentCount and ChunkCount are refreshed on every save so
	// listings do not have to open the snapshot.
	DocumentCount int `json:"document_count"`
	ChunkCount    int `json:"chunk_count"`

	// CreatedAt is when the corpus was first created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the corpus was last mutated.
	UpdatedAt time.Time `json:"updated_at"`
}

// CorpusInfo is one entry of a corpus listing.
type CorpusInfo struct {
	Descriptor

	// Path is the corpus directory.
	Path string `json:"path"`

	// SizeBytes is the total size of files in the directory.
	SizeBytes int64 `json:"size_bytes"`
}

// IndexedChunk pairs a chunk with its embedding vector.
type IndexedChunk struct {
	Chunk  Chunk
	Vector []float32
}

// Snapshot is everything a corpus persists besides its descriptor.
// Chunks and vectors are always saved and loaded together.
type Snapshot struct {
	// Model is the embedding model identifier.
	Model string

	// Dimensions is the vector dimensionality.
	Dimensions int

	// Chunks holds chunks in insertion order.
	Chunks []IndexedChunk

	// Documents is the full ingestion log in append order.
	Documents []Document

	// UpdatedAt is the last index mutation time.
	UpdatedAt time.Time
}

// IndexStats summarises a vector index. Derived only.
type IndexStats struct {
	TotalChunks    int       `json:"total_chunks"`
	TotalDocuments int       `json:"total_documents"`
	AvgChunkWords  float64   `json:"avg_chunk_words"`
	Model          string    `json:"model"`
	Dimensions     int       `json:"dimensions"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SourceBreakdown aggregates documents sharing one source tag.
type SourceBreakdown struct {
	Documents  int `json:"documents"`
	Successful int `json:"successful"`
	Words      int `json:"words"`
	Chunks     int `json:"chunks"`
}

// CorpusStats is the summary surface consumed by the chat layer and the
// management tooling.
type CorpusStats struct {
	Name string `json:"name"`
	Path string `json:"path"`

	TotalDocuments      int     `json:"total_documents"`
	SuccessfulDocuments int     `json:"successful_documents"`
	FailedDocuments     int     `json:"failed_documents"`
	DuplicateDocuments  int     `json:"duplicate_documents"`
	SuccessRate         float64 `json:"success_rate"`
	TotalWords          int     `json:"total_words"`
	TotalBytes          int64   `json:"total_bytes"`
	AvgWordsPerDocument float64 `json:"avg_words_per_document"`

	Sources map[string]SourceBreakdown `json:"sources"`
	Index   IndexStats                 `json:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BuildStats reports the outcome of one Corpus build or add call.
type BuildStats struct {
	// Documents is the number of files processed.
	Documents int

	// Succeeded is the number of successful extractions.
	Succeeded int

	// Failed is the number of failed extractions.
	Failed int

	// Duplicates is the number of successful documents skipped by hash.
	Duplicates int

	// ChunksAdded is the number of chunks indexed.
	ChunksAdded int
}

// MigrateOptions selects the migration steps to run.
type MigrateOptions struct {
	// Legacy imports a flat snapshot file <base>/<name><ext> into the
	// named directory layout.
	Legacy bool

	// Reembed recomputes every vector with the configured model.
	Reembed bool
}

// MigrateResult reports what a migration changed.
type MigrateResult struct {
	// Imported is true when a legacy snapshot was moved into place.
	Imported bool

	// Reembedded is the number of chunks whose vectors were recomputed.
	Reembedded int

	// FromModel and ToModel name the models before and after.
	FromModel string
	ToModel   string
}
