package domain

// SearchResult is a single ranked hit. It is produced per call and
// never persisted.
type SearchResult struct {
	// Chunk is the matched chunk.
	Chunk Chunk `json:"chunk"`

	// Score is the cosine similarity between query and chunk vectors.
	Score float64 `json:"score"`
}

// SearchOptions configures a search query.
type SearchOptions struct {
	// K is the maximum number of results. Zero means the configured default.
	K int

	// Context holds recent conversation turns, oldest first. When set,
	// the most recent turns that fit the context budget are merged into
	// the query.
	Context []string
}
