// Package file implements a durable local vector store: one JSON file per
// collection under a data directory. Search is a brute-force cosine scan,
// which is plenty for a research corpus of a few thousand notes.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"clinicalrag/internal/domain"
	"clinicalrag/internal/vectorstore"
)

type indexFile struct {
	Dimension int                 `json:"dimension"`
	Entries   []domain.IndexEntry `json:"entries"`
}

// Store persists one collection. Writers are serialized by the mutex;
// readers may run concurrently.
type Store struct {
	path string

	mu        sync.RWMutex
	dimension int
	entries   []domain.IndexEntry
}

// Open loads (or lazily creates) the collection named collection under dir.
// A missing file is an empty collection, not an error; a file that exists
// but cannot be parsed is a fatal configuration error.
func Open(dir, collection string) (*Store, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: empty collection name", domain.ErrConfiguration)
	}
	s := &Store{path: filepath.Join(dir, collection+".json")}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read index %s: %w", s.path, err)
	}
	var f indexFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: corrupt index %s: %v", domain.ErrConfiguration, s.path, err)
	}
	s.dimension = f.Dimension
	s.entries = f.Entries
	return s, nil
}

// Insert appends entries and persists the collection. Sequence numbers are
// assigned here; callers may leave Seq zero. No deduplication happens:
// inserting the same document twice stores it twice. The batch is atomic:
// every vector is validated before anything is appended, so a rejected
// batch leaves the collection untouched.
func (s *Store) Insert(ctx context.Context, entries []domain.IndexEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dim := s.dimension
	for _, e := range entries {
		if dim == 0 {
			dim = len(e.Vector)
		}
		if len(e.Vector) != dim {
			return fmt.Errorf("%w: vector dimension %d does not match index dimension %d",
				domain.ErrConfiguration, len(e.Vector), dim)
		}
	}
	s.dimension = dim
	for _, e := range entries {
		e.Seq = len(s.entries)
		s.entries = append(s.entries, e)
	}
	return s.persistLocked()
}

// Search ranks all entries against vector and returns up to topK results in
// descending similarity order (see vectorstore.Rank for the convention).
func (s *Store) Search(ctx context.Context, vector []float64, topK int) ([]domain.ScoredResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return vectorstore.Rank(s.entries, vector, topK, s.dimension)
}

// All returns a copy of every entry in insertion order.
func (s *Store) All(ctx context.Context) ([]domain.IndexEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.IndexEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Close is a no-op; every Insert already persisted.
func (s *Store) Close() error { return nil }

// persistLocked writes the whole collection via tmp+rename so a crashed
// writer never leaves a torn file behind.
func (s *Store) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(indexFile{Dimension: s.dimension, Entries: s.entries})
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
