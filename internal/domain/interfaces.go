package domain

import "context"

// Embedder converts free text into a numeric vector representation.
// Embed is deterministic for a given model and the dimension is constant for
// the lifetime of an instance; an index built with one dimension cannot be
// queried with vectors of another.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// VectorStore persists index entries for one named collection and supports
// similarity search over them.
//
// Search returns up to topK results ordered by descending similarity
// (higher score = more similar); equal scores keep insertion order.
// Searching an empty or absent collection yields an empty slice, not an
// error. Insert performs no deduplication: re-inserting the same logical
// document creates a duplicate entry.
type VectorStore interface {
	Insert(ctx context.Context, entries []IndexEntry) error
	Search(ctx context.Context, vector []float64, topK int) ([]ScoredResult, error)
	// All enumerates every stored entry in insertion order, for export and
	// migration.
	All(ctx context.Context) ([]IndexEntry, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Generator produces an answer for a query given a formatted context block.
// It is the slow external collaborator of the pipeline; failures are
// reported as errors, never as an empty success.
type Generator interface {
	Generate(ctx context.Context, query, contextStr string) (string, error)
}
