// Package indexer turns prepared documents into stored index entries.
package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"clinicalrag/internal/domain"
	"clinicalrag/internal/preprocess"
)

// maxConcurrentEmbeds bounds parallel embedding calls so remote backends
// are not flooded during a bulk ingest.
const maxConcurrentEmbeds = 8

// Indexer embeds cleaned documents and inserts them into the vector store.
type Indexer struct {
	embedder domain.Embedder
	store    domain.VectorStore
	logger   *zap.Logger
}

// New creates an indexer over the given embedder and store.
func New(embedder domain.Embedder, store domain.VectorStore, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{embedder: embedder, store: store, logger: logger}
}

// Insert cleans, embeds and stores docs as one batch. Embedding runs with
// bounded concurrency; entry order (and so insertion sequence) follows the
// order of docs. Documents whose content cleans to nothing are rejected
// before any embedding work. No deduplication: re-inserting a document
// creates a duplicate entry.
func (ix *Indexer) Insert(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	cleaned := make([]domain.Document, len(docs))
	for i, d := range docs {
		d.Content = preprocess.CleanText(d.Content)
		if d.Content == "" {
			return fmt.Errorf("%w: document %s has no content after cleaning", domain.ErrInvalidInput, d.ID)
		}
		cleaned[i] = d
	}

	entries := make([]domain.IndexEntry, len(cleaned))
	sem := make(chan struct{}, maxConcurrentEmbeds)
	errCh := make(chan error, len(cleaned))
	for i := range cleaned {
		sem <- struct{}{}
		go func(idx int) {
			defer func() { <-sem }()
			vec, err := ix.embedder.Embed(ctx, cleaned[idx].Content)
			if err != nil {
				errCh <- fmt.Errorf("embed document %s: %w", cleaned[idx].ID, err)
				return
			}
			entries[idx] = domain.IndexEntry{Vector: vec, Document: cleaned[idx]}
			errCh <- nil
		}(i)
	}
	for range cleaned {
		if err := <-errCh; err != nil {
			return err
		}
	}

	if err := ix.store.Insert(ctx, entries); err != nil {
		return fmt.Errorf("store insert: %w", err)
	}
	ix.logger.Info("indexed documents",
		zap.Int("count", len(entries)),
		zap.String("embedder", ix.embedder.Name()),
	)
	return nil
}
