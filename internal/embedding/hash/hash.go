// Package hash implements a deterministic feature-hashing bag-of-words
// embedder. Each token is hashed into one of a fixed number of buckets, so
// the dimension is constant for the lifetime of the instance regardless of
// vocabulary, and identical text always yields an identical vector. It needs
// no network or model weights, which makes it the offline default.
package hash

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"

	"clinicalrag/internal/domain"
	"clinicalrag/internal/vectormath"
)

// DefaultDimension is large enough that distinct clinical terms rarely share
// a bucket.
const DefaultDimension = 4096

// Embedder hashes lowercased word tokens into a fixed-dimension vector and
// L2-normalizes the result.
type Embedder struct {
	dimension    int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// New creates a hashing embedder. dimension <= 0 selects DefaultDimension.
func New(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{
		dimension:    dimension,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:    defaultStopwords(),
	}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "hash" }

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed computes the hashed bag-of-words embedding for text.
// Empty or whitespace-only text is rejected with ErrInvalidInput. Text that
// tokenizes to stopwords only yields an explicit zero vector; downstream
// cosine math treats zero-norm vectors as similarity 0.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: cannot embed empty text", domain.ErrInvalidInput)
	}
	vec := make([]float64, e.dimension)
	for _, tok := range e.tokenize(text) {
		vec[e.bucket(tok)]++
	}
	vectormath.Normalize(vec)
	return vec, nil
}

func (e *Embedder) bucket(token string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return int(h.Sum32() % uint32(e.dimension))
}

func (e *Embedder) tokenize(text string) []string {
	raw := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "has", "have", "had", "does", "do", "did", "not", "no", "nor", "what", "which", "who", "whom", "why", "how",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
