// Package evaluator scores a generated answer from two sides: relevance
// (answer vs query) and faithfulness (answer vs the context the generator
// actually saw).
package evaluator

import (
	"context"
	"fmt"
	"math"

	"clinicalrag/internal/domain"
	"clinicalrag/internal/vectormath"
)

// Evaluator computes embedding cosine-similarity metrics. It shares the
// pipeline's embedder so the metric space matches the index.
type Evaluator struct {
	embedder domain.Embedder
}

// New creates an evaluator over the given embedder.
func New(embedder domain.Embedder) *Evaluator {
	return &Evaluator{embedder: embedder}
}

// Score embeds query, answer and contextStr independently and returns
//
//	Relevance    = cosine(query, answer)
//	Faithfulness = cosine(answer, contextStr)
//
// contextStr must be the exact string given to the generator — scoring
// against an untruncated context would measure the answer against
// information the generator never saw. The three embeddings are computed
// concurrently; if any of them fails the whole call fails, there is no
// partial result.
func (e *Evaluator) Score(ctx context.Context, query, answer, contextStr string) (domain.Metrics, error) {
	inputs := []string{query, answer, contextStr}
	names := []string{"query", "answer", "context"}
	vecs := make([][]float64, len(inputs))
	errCh := make(chan error, len(inputs))
	for i := range inputs {
		go func(idx int) {
			vec, err := e.embedder.Embed(ctx, inputs[idx])
			if err != nil {
				errCh <- fmt.Errorf("embed %s: %w", names[idx], err)
				return
			}
			vecs[idx] = vec
			errCh <- nil
		}(i)
	}
	var firstErr error
	for range inputs {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return domain.Metrics{}, firstErr
	}
	return domain.Metrics{
		Relevance:    vectormath.Cosine(vecs[0], vecs[1]),
		Faithfulness: vectormath.Cosine(vecs[1], vecs[2]),
	}, nil
}

// Round4 rounds a score to 4 decimal digits for presentation. The unrounded
// value stays canonical for comparisons.
func Round4(score float64) float64 {
	return math.Round(score*10000) / 10000
}
