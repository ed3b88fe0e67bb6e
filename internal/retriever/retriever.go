// Package retriever answers free-text queries against the vector index and
// formats the hits into the context block the generator consumes.
package retriever

import (
	"context"
	"fmt"
	"strings"

	"clinicalrag/internal/domain"
)

// Retriever is stateless beyond its references to the shared embedder and
// store; concurrent retrievals are safe.
type Retriever struct {
	embedder domain.Embedder
	store    domain.VectorStore
}

// New creates a retriever over the given embedder and store.
func New(embedder domain.Embedder, store domain.VectorStore) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// Retrieve embeds query and returns up to k hits in descending similarity
// order. An empty index yields an empty slice, not an error. Invalid input
// (blank query, k < 1) is rejected before any embedding or store work.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.ScoredResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be >= 1, got %d", domain.ErrInvalidInput, k)
	}
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := r.store.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return results, nil
}

// FormatContext renders results, in order, into the context string handed to
// the generator. The block shape is a compatibility contract with the
// generation prompt template; change it only together with that template.
func FormatContext(results []domain.ScoredResult) string {
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "--- Document %d ---\n", i+1)
		fmt.Fprintf(&b, "Condition: %s\n", r.Metadata.Condition)
		fmt.Fprintf(&b, "Content: %s\n\n", r.Content)
	}
	return b.String()
}
