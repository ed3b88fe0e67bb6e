// Package pipeline wires retrieval, generation and evaluation into the
// single per-request flow of the application.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"clinicalrag/internal/domain"
	"clinicalrag/internal/evaluator"
	"clinicalrag/internal/preprocess"
	"clinicalrag/internal/retriever"
)

// Result is everything one query produces for the display layer.
// Context is the exact (possibly truncated) string the generator received;
// the metrics were scored against that same string.
type Result struct {
	Results []domain.ScoredResult
	Context string
	Answer  string
	Metrics domain.Metrics
}

// Pipeline runs retrieve → truncate → generate → evaluate. It holds no
// per-request state; concurrent Ask calls are safe.
type Pipeline struct {
	retriever       *retriever.Retriever
	generator       domain.Generator
	evaluator       *evaluator.Evaluator
	maxContextChars int
	logger          *zap.Logger
}

// New creates a pipeline. maxContextChars bounds the context handed to the
// generator; <= 0 disables truncation.
func New(r *retriever.Retriever, g domain.Generator, e *evaluator.Evaluator, maxContextChars int, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		retriever:       r,
		generator:       g,
		evaluator:       e,
		maxContextChars: maxContextChars,
		logger:          logger,
	}
}

// Ask answers query using the k most similar notes. Zero retrieval hits is
// not an error: the Result comes back with empty Results and no answer, and
// the display layer surfaces the no-documents condition. Generator and
// evaluator both consume the identical truncated context, so faithfulness is
// measured against exactly what the model saw.
func (p *Pipeline) Ask(ctx context.Context, query string, k int) (*Result, error) {
	results, err := p.retriever.Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		p.logger.Info("no relevant documents", zap.String("query", query))
		return &Result{Results: results}, nil
	}

	contextStr := preprocess.TruncateContext(retriever.FormatContext(results), p.maxContextChars)

	answer, err := p.generator.Generate(ctx, query, contextStr)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	metrics, err := p.evaluator.Score(ctx, query, answer, contextStr)
	if err != nil {
		return nil, fmt.Errorf("evaluate answer: %w", err)
	}

	p.logger.Info("query answered",
		zap.String("query", query),
		zap.Int("hits", len(results)),
		zap.Float64("relevance", evaluator.Round4(metrics.Relevance)),
		zap.Float64("faithfulness", evaluator.Round4(metrics.Faithfulness)),
	)
	return &Result{Results: results, Context: contextStr, Answer: answer, Metrics: metrics}, nil
}
