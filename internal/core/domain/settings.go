package domain

import "path/filepath"

const unknownDescription = "Unknown"

// ChunkStrategy selects the chunker implementation.
type ChunkStrategy string

// Available chunk strategies.
const (
	// ChunkStrategyFixedWindow slides a fixed word window with overlap.
	ChunkStrategyFixedWindow ChunkStrategy = "fixed-window"

	// ChunkStrategyStructureAware ends chunks at headings, equations and
	// sentence boundaries near the target size.
	ChunkStrategyStructureAware ChunkStrategy = "structure-aware"
)

// IsValid returns true if the strategy is recognised.
func (s ChunkStrategy) IsValid() bool {
	switch s {
	case ChunkStrategyFixedWindow, ChunkStrategyStructureAware:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s ChunkStrategy) String() string {
	return string(s)
}

// Description returns a human-readable description of the strategy.
func (s ChunkStrategy) Description() string {
	switch s {
	case ChunkStrategyFixedWindow:
		return "Fixed window (word stride)"
	case ChunkStrategyStructureAware:
		return "Structure aware (sentences, headings, equations)"
	default:
		return unknownDescription
	}
}

// EmbeddingProvider identifies the embedding backend.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingProviderNgram is the built-in hashed n-gram embedder.
	EmbeddingProviderNgram EmbeddingProvider = "ngram"

	// EmbeddingProviderOllama is a local Ollama instance.
	EmbeddingProviderOllama EmbeddingProvider = "ollama"

	// EmbeddingProviderOpenAI is the OpenAI embeddings API.
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderNgram, EmbeddingProviderOllama, EmbeddingProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == EmbeddingProviderOpenAI
}

// IsLocal returns true if the provider runs in process or on localhost.
func (p EmbeddingProvider) IsLocal() bool {
	return p == EmbeddingProviderNgram || p == EmbeddingProviderOllama
}

// Config is the explicit configuration value built once at startup and
// passed to every component.
type Config struct {
	// BaseDir holds one subdirectory per corpus.
	BaseDir string `toml:"base_dir" validate:"required"`

	Chunking   ChunkingSettings   `toml:"chunking"`
	Embedding  EmbeddingSettings  `toml:"embedding"`
	Extraction ExtractionSettings `toml:"extraction"`
	Search     SearchSettings     `toml:"search"`
	Sources    SourceSettings     `toml:"sources"`
}

// ChunkingSettings holds chunker configuration. Sizes are in words.
type ChunkingSettings struct {
	Strategy ChunkStrategy `toml:"strategy" validate:"oneof=fixed-window structure-aware"`
	Size     int           `toml:"size" validate:"gt=0"`
	Overlap  int           `toml:"overlap" validate:"gte=0,ltfield=Size"`
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding backend.
	Provider EmbeddingProvider `toml:"provider" validate:"oneof=ngram ollama openai"`

	// Model is the model name passed to remote providers.
	Model string `toml:"model" validate:"required"`

	// Dimensions is the vector size for the n-gram provider.
	Dimensions int `toml:"dimensions" validate:"gt=0"`

	// BaseURL is the API endpoint for remote providers.
	BaseURL string `toml:"base_url" validate:"omitempty,url"`

	// APIKey is the API key for OpenAI.
	APIKey string `toml:"api_key"`

	// RequestsPerSecond throttles remote providers. Zero disables it.
	RequestsPerSecond float64 `toml:"requests_per_second" validate:"gte=0"`
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ExtractionSettings controls which files are scanned.
type ExtractionSettings struct {
	// Extensions lists supported extensions, lowercase with the dot.
	Extensions []string `toml:"extensions" validate:"min=1,dive,startswith=."`

	// Exclude holds glob patterns matched against slash-separated paths
	// relative to the scanned folder.
	Exclude []string `toml:"exclude"`

	// PDFToolFallback enables pdftotext when the built-in reader fails.
	PDFToolFallback bool `toml:"pdf_tool_fallback"`
}

// SearchSettings holds query defaults.
type SearchSettings struct {
	// TopK is the default number of results.
	TopK int `toml:"top_k" validate:"gt=0"`

	// ContextBudget is the maximum number of context characters merged
	// into a query by SearchWithContext.
	ContextBudget int `toml:"context_budget" validate:"gte=0"`
}

// SourceSettings configures where each source kind finds files.
type SourceSettings struct {
	// LocalFolders maps a source tag to a folder.
	LocalFolders map[string]string `toml:"local_folders"`

	// Library configures the reference-library mirror.
	Library LibrarySettings `toml:"library"`
}

// LibrarySettings configures the reference-library source.
type LibrarySettings struct {
	// StorageDir is the library's own attachment storage, one
	// subdirectory per collection.
	StorageDir string `toml:"storage_dir"`

	// MirrorDir receives synced files and is what gets ingested.
	MirrorDir string `toml:"mirror_dir"`

	// FilesPerSecond throttles copying. Zero disables it.
	FilesPerSecond float64 `toml:"files_per_second" validate:"gte=0"`
}

// Default configuration values.
const (
	DefaultChunkSize      = 1000
	DefaultChunkOverlap   = 200
	DefaultDimensions     = 384
	DefaultTopK           = 10
	DefaultContextBudget  = 200
	DefaultEmbeddingModel = "ngram-v1"
)

// DefaultExtensions are the file types extracted out of the box.
var DefaultExtensions = []string{".pdf", ".tex", ".txt", ".md", ".html"}

// DefaultConfig returns the configuration used when no file exists.
// dataDir is the application data directory (usually ~/.folio).
func DefaultConfig(dataDir string) Config {
	docs := filepath.Join(dataDir, "documents")
	return Config{
		BaseDir: filepath.Join(dataDir, "corpora"),
		Chunking: ChunkingSettings{
			Strategy: ChunkStrategyStructureAware,
			Size:     DefaultChunkSize,
			Overlap:  DefaultChunkOverlap,
		},
		Embedding: EmbeddingSettings{
			Provider:   EmbeddingProviderNgram,
			Model:      DefaultEmbeddingModel,
			Dimensions: DefaultDimensions,
		},
		Extraction: ExtractionSettings{
			Extensions:      append([]string(nil), DefaultExtensions...),
			PDFToolFallback: true,
		},
		Search: SearchSettings{
			TopK:          DefaultTopK,
			ContextBudget: DefaultContextBudget,
		},
		Sources: SourceSettings{
			LocalFolders: map[string]string{
				"literature":        filepath.Join(docs, "literature"),
				"your_work":         filepath.Join(docs, "your_work"),
				"current_drafts":    filepath.Join(docs, "current_drafts"),
				"manual_references": filepath.Join(docs, "manual_references"),
			},
			Library: LibrarySettings{
				MirrorDir: filepath.Join(docs, "library_sync"),
			},
		},
	}
}

// Setting is one stored configuration entry.
type Setting struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}
