// Package postgres stores index entries in a Postgres table, one row per
// entry, scoped by collection name so independent corpora share a database
// without cross-contamination. Ranking happens client-side over an ordered
// scan, reusing the same cosine ranking as the file backend; this keeps the
// score convention identical and avoids requiring the pgvector extension.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"clinicalrag/internal/domain"
	"clinicalrag/internal/vectorstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS clinical_notes (
	collection TEXT        NOT NULL,
	seq        INTEGER     NOT NULL,
	doc_id     TEXT        NOT NULL,
	content    TEXT        NOT NULL,
	metadata   JSONB       NOT NULL,
	embedding  FLOAT8[]    NOT NULL,
	PRIMARY KEY (collection, seq)
)`

// Store persists one collection inside a shared Postgres table.
type Store struct {
	db         *sql.DB
	collection string
	dimension  int
}

// Open connects with a lib/pq DSN and ensures the schema exists.
func Open(dsn, collection string) (*Store, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: empty collection name", domain.ErrConfiguration)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %v", domain.ErrConfiguration, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	s := &Store{db: db, collection: collection}
	// recover the stored dimension, if any entries exist
	row := db.QueryRow(
		`SELECT array_length(embedding, 1) FROM clinical_notes WHERE collection = $1 ORDER BY seq LIMIT 1`,
		collection)
	var dim sql.NullInt64
	if err := row.Scan(&dim); err != nil && err != sql.ErrNoRows {
		db.Close()
		return nil, fmt.Errorf("read index dimension: %w", err)
	}
	if dim.Valid {
		s.dimension = int(dim.Int64)
	}
	return s, nil
}

// Insert appends entries inside a single transaction. Sequence numbers
// continue from the current maximum; duplicates are stored as new rows.
func (s *Store) Insert(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var next sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(seq) FROM clinical_notes WHERE collection = $1`, s.collection).Scan(&next); err != nil {
		return err
	}
	seq := 0
	if next.Valid {
		seq = int(next.Int64) + 1
	}
	for _, e := range entries {
		if s.dimension == 0 {
			s.dimension = len(e.Vector)
		}
		if len(e.Vector) != s.dimension {
			return fmt.Errorf("%w: vector dimension %d does not match index dimension %d",
				domain.ErrConfiguration, len(e.Vector), s.dimension)
		}
		meta, err := json.Marshal(e.Document.Metadata)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO clinical_notes (collection, seq, doc_id, content, metadata, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			s.collection, seq, e.Document.ID, e.Document.Content, meta, pq.Array(e.Vector),
		); err != nil {
			return fmt.Errorf("insert entry %s: %w", e.Document.ID, err)
		}
		seq++
	}
	return tx.Commit()
}

// Search scans the collection in insertion order and ranks client-side.
func (s *Store) Search(ctx context.Context, vector []float64, topK int) ([]domain.ScoredResult, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return vectorstore.Rank(entries, vector, topK, s.dimension)
}

// All enumerates the collection in insertion order.
func (s *Store) All(ctx context.Context) ([]domain.IndexEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, doc_id, content, metadata, embedding
		 FROM clinical_notes WHERE collection = $1 ORDER BY seq`, s.collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.IndexEntry
	for rows.Next() {
		var e domain.IndexEntry
		var meta []byte
		var vec pq.Float64Array
		if err := rows.Scan(&e.Seq, &e.Document.ID, &e.Document.Content, &meta, &vec); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(meta, &e.Document.Metadata); err != nil {
			return nil, fmt.Errorf("%w: corrupt metadata at seq %d: %v", domain.ErrConfiguration, e.Seq, err)
		}
		e.Vector = []float64(vec)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of entries in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clinical_notes WHERE collection = $1`, s.collection).Scan(&n)
	return n, err
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
