// Package ngram provides an in-process embedding service built from
// hashed character trigrams and word unigrams.
//
// Vectors are deterministic, need no network and no model files, and are
// L2-normalised so cosine similarity reduces to a dot product. Quality is
// lexical rather than semantic: texts that share word stems score high.
package ngram

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Model identifies the feature scheme. Changing tokenisation or weights
// requires a new identifier so stored corpora are re-embedded.
const Model = "ngram-v1"

// DefaultDimensions is the vector size used when none is configured.
const DefaultDimensions = 384

const (
	wordWeight    = 1.0
	trigramWeight = 0.5
)

// EmbeddingService hashes text features into a fixed number of buckets.
type EmbeddingService struct {
	dimensions int
}

// New creates an n-gram embedder. Non-positive dimensions use the default.
func New(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: dimensions}
}

// Embed generates a vector embedding for the given text.
// Text with no letters or digits yields the zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.vector(text), nil
}

// EmbedBatch generates embeddings for multiple texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = s.vector(text)
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the feature scheme identifier.
func (s *EmbeddingService) ModelName() string {
	return Model
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func (s *EmbeddingService) vector(text string) []float32 {
	v := make([]float32, s.dimensions)
	for _, word := range tokenize(text) {
		s.add(v, "w:"+word, wordWeight)

		runes := []rune("^" + word + "$")
		for i := 0; i+3 <= len(runes); i++ {
			s.add(v, string(runes[i:i+3]), trigramWeight)
		}
	}
	normalize(v)
	return v
}

// add hashes feature into a bucket. The top hash bit picks the sign so
// collisions tend to cancel rather than accumulate.
func (s *EmbeddingService) add(v []float32, feature string, weight float32) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()

	idx := int(sum % uint64(s.dimensions))
	if sum>>63 == 1 {
		weight = -weight
	}
	v[idx] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}
