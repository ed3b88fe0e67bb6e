// Package vectorstore holds the ranking logic shared by backends that scan
// their entries client-side (file, postgres). Keeping it in one place keeps
// the score convention identical across backends: cosine similarity, higher
// is better, descending order, ties broken by insertion sequence.
package vectorstore

import (
	"fmt"
	"sort"

	"clinicalrag/internal/domain"
	"clinicalrag/internal/vectormath"
)

// Rank scores every entry against vector and returns up to topK results in
// descending similarity order. Equal scores keep insertion order. A query
// vector whose dimension differs from the stored dimension is a fatal
// configuration error, never a silently wrong result.
func Rank(entries []domain.IndexEntry, vector []float64, topK, dimension int) ([]domain.ScoredResult, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: topK must be >= 1, got %d", domain.ErrInvalidInput, topK)
	}
	if len(entries) == 0 {
		return []domain.ScoredResult{}, nil
	}
	if dimension > 0 && len(vector) != dimension {
		return nil, fmt.Errorf("%w: query vector dimension %d does not match index dimension %d",
			domain.ErrConfiguration, len(vector), dimension)
	}

	scored := make([]domain.ScoredResult, len(entries))
	order := make([]int, len(entries))
	for i, e := range entries {
		scored[i] = domain.ScoredResult{
			Content:  e.Document.Content,
			Metadata: e.Document.Metadata,
			Score:    vectormath.Cosine(e.Vector, vector),
		}
		order[i] = e.Seq
	}
	idxs := make([]int, len(scored))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool {
		if scored[idxs[a]].Score != scored[idxs[b]].Score {
			return scored[idxs[a]].Score > scored[idxs[b]].Score
		}
		return order[idxs[a]] < order[idxs[b]]
	})

	if topK > len(idxs) {
		topK = len(idxs)
	}
	out := make([]domain.ScoredResult, 0, topK)
	for _, i := range idxs[:topK] {
		out = append(out, scored[i])
	}
	return out, nil
}
