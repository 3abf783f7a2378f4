package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FOLIO_"

// Configuration keys, as stored in config.toml.
const (
	KeyBaseDir               = "base_dir"
	KeyChunkStrategy         = "chunking.strategy"
	KeyChunkSize             = "chunking.size"
	KeyChunkOverlap          = "chunking.overlap"
	KeyEmbeddingProvider     = "embedding.provider"
	KeyEmbeddingModel        = "embedding.model"
	KeyEmbeddingDimensions   = "embedding.dimensions"
	KeyEmbeddingBaseURL      = "embedding.base_url"
	KeyEmbeddingAPIKey       = "embedding.api_key"
	KeyEmbeddingRate         = "embedding.requests_per_second"
	KeyExtensions            = "extraction.extensions"
	KeyExclude               = "extraction.exclude"
	KeyPDFToolFallback       = "extraction.pdf_tool_fallback"
	KeyTopK                  = "search.top_k"
	KeyContextBudget         = "search.context_budget"
	KeyLocalFolders          = "sources.local_folders"
	KeyLibraryStorageDir     = "sources.library.storage_dir"
	KeyLibraryMirrorDir      = "sources.library.mirror_dir"
	KeyLibraryFilesPerSecond = "sources.library.files_per_second"
)

// envKeys maps environment variables (without prefix) to config keys.
var envKeys = map[string]string{
	"BASE_DIR":                      KeyBaseDir,
	"CHUNK_STRATEGY":                KeyChunkStrategy,
	"CHUNK_SIZE":                    KeyChunkSize,
	"CHUNK_OVERLAP":                 KeyChunkOverlap,
	"EMBEDDING_PROVIDER":            KeyEmbeddingProvider,
	"EMBEDDING_MODEL":               KeyEmbeddingModel,
	"EMBEDDING_DIMENSIONS":          KeyEmbeddingDimensions,
	"EMBEDDING_BASE_URL":            KeyEmbeddingBaseURL,
	"EMBEDDING_API_KEY":             KeyEmbeddingAPIKey,
	"EMBEDDING_REQUESTS_PER_SECOND": KeyEmbeddingRate,
	"EXTENSIONS":                    KeyExtensions,
	"EXCLUDE":                       KeyExclude,
	"PDF_TOOL_FALLBACK":             KeyPDFToolFallback,
	"TOP_K":                         KeyTopK,
	"CONTEXT_BUDGET":                KeyContextBudget,
	"LIBRARY_STORAGE_DIR":           KeyLibraryStorageDir,
	"LIBRARY_MIRROR_DIR":            KeyLibraryMirrorDir,
	"LIBRARY_FILES_PER_SECOND":      KeyLibraryFilesPerSecond,
}

// providerDefaults apply when a remote provider is selected but the model
// settings were left at the n-gram defaults.
var providerDefaults = map[domain.EmbeddingProvider]struct {
	model      string
	dimensions int
}{
	domain.EmbeddingProviderOllama: {"nomic-embed-text", 768},
	domain.EmbeddingProviderOpenAI: {"text-embedding-3-small", 1536},
}

// LoadEnv returns FOLIO_ variables from the dotenv file at path overlaid
// with the process environment. A missing dotenv file is not an error.
// The process environment is never modified.
func LoadEnv(path string) (map[string]string, error) {
	env := make(map[string]string)

	if path != "" {
		values, err := godotenv.Read(path)
		switch {
		case err == nil:
			for k, v := range values {
				if strings.HasPrefix(k, EnvPrefix) {
					env[k] = v
				}
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("%w: read %s: %v", domain.ErrConfigInvalid, path, err)
		}
	}

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, EnvPrefix) {
			env[k] = v
		}
	}
	return env, nil
}

// Resolve builds the configuration: defaults for dataDir, then values
// from store, then env overrides. The result is validated.
func Resolve(store driven.ConfigStore, env map[string]string, dataDir string) (domain.Config, error) {
	cfg := domain.DefaultConfig(dataDir)

	values := make(map[string]any)
	if store != nil {
		for _, key := range allKeys() {
			if v, ok := store.Get(key); ok {
				values[key] = v
			}
		}
		if tags := store.Keys(KeyLocalFolders); len(tags) > 0 {
			cfg.Sources.LocalFolders = make(map[string]string, len(tags))
			for _, tag := range tags {
				cfg.Sources.LocalFolders[tag] = expandHome(store.GetString(KeyLocalFolders + "." + tag))
			}
		}
	}
	for name, value := range env {
		if key, ok := envKeys[strings.TrimPrefix(name, EnvPrefix)]; ok {
			values[key] = value
		}
	}

	if err := apply(&cfg, values); err != nil {
		return domain.Config{}, err
	}
	applyProviderDefaults(&cfg, values)

	if err := Validate(cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

func allKeys() []string {
	keys := make([]string, 0, len(envKeys))
	for _, k := range envKeys {
		keys = append(keys, k)
	}
	return keys
}

// apply copies raw values onto cfg. Values come from TOML (typed) or the
// environment (strings).
func apply(cfg *domain.Config, values map[string]any) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := values[key]; ok {
			*dst = fmt.Sprint(v)
		}
	}
	path := func(key string, dst *string) {
		if v, ok := values[key]; ok {
			*dst = expandHome(fmt.Sprint(v))
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := values[key]; ok {
			n, err := toInt(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := values[key]; ok {
			f, err := toFloat(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := values[key]; ok {
			b, err := toBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := values[key]; ok {
			*dst = toList(v)
		}
	}

	path(KeyBaseDir, &cfg.BaseDir)

	var strategy, provider string
	str(KeyChunkStrategy, &strategy)
	if strategy != "" {
		cfg.Chunking.Strategy = domain.ChunkStrategy(strategy)
	}
	integer(KeyChunkSize, &cfg.Chunking.Size)
	integer(KeyChunkOverlap, &cfg.Chunking.Overlap)

	str(KeyEmbeddingProvider, &provider)
	if provider != "" {
		cfg.Embedding.Provider = domain.EmbeddingProvider(provider)
	}
	str(KeyEmbeddingModel, &cfg.Embedding.Model)
	integer(KeyEmbeddingDimensions, &cfg.Embedding.Dimensions)
	str(KeyEmbeddingBaseURL, &cfg.Embedding.BaseURL)
	str(KeyEmbeddingAPIKey, &cfg.Embedding.APIKey)
	float(KeyEmbeddingRate, &cfg.Embedding.RequestsPerSecond)

	list(KeyExtensions, &cfg.Extraction.Extensions)
	list(KeyExclude, &cfg.Extraction.Exclude)
	boolean(KeyPDFToolFallback, &cfg.Extraction.PDFToolFallback)

	integer(KeyTopK, &cfg.Search.TopK)
	integer(KeyContextBudget, &cfg.Search.ContextBudget)

	path(KeyLibraryStorageDir, &cfg.Sources.Library.StorageDir)
	path(KeyLibraryMirrorDir, &cfg.Sources.Library.MirrorDir)
	float(KeyLibraryFilesPerSecond, &cfg.Sources.Library.FilesPerSecond)

	for i, ext := range cfg.Extraction.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Extraction.Extensions[i] = ext
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrConfigInvalid, errors.Join(errs...))
	}
	return nil
}

func applyProviderDefaults(cfg *domain.Config, values map[string]any) {
	d, ok := providerDefaults[cfg.Embedding.Provider]
	if !ok {
		return
	}
	if _, set := values[KeyEmbeddingModel]; !set {
		cfg.Embedding.Model = d.model
	}
	if _, set := values[KeyEmbeddingDimensions]; !set {
		cfg.Embedding.Dimensions = d.dimensions
	}
}

// Validate checks struct constraints and cross-field rules.
func Validate(cfg domain.Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", domain.ErrConfigInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}
	if !cfg.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %s requires an API key", domain.ErrConfigInvalid, cfg.Embedding.Provider)
	}
	return nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	default:
		return 0, fmt.Errorf("not an integer: %v", v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(b))
	default:
		return false, fmt.Errorf("not a boolean: %v", v)
	}
}

// toList accepts TOML arrays and comma-separated strings.
func toList(v any) []string {
	var items []string
	switch l := v.(type) {
	case []string:
		items = l
	case []any:
		for _, item := range l {
			items = append(items, fmt.Sprint(item))
		}
	case string:
		items = strings.Split(l, ",")
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
