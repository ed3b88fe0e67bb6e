package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicalrag/internal/domain"
)

func docEntry(id string, vector []float64) domain.IndexEntry {
	return domain.IndexEntry{
		Vector: vector,
		Document: domain.Document{
			ID:       id,
			Content:  "note " + id,
			Metadata: domain.Metadata{Condition: "Pneumonia", SubDiagnosis: "Bacterial", Source: id + ".json"},
		},
	}
}

func TestInsertAndSearch(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir(), "notes")
	require.NoError(t, err)

	require.NoError(t, s.Insert(ctx, []domain.IndexEntry{
		docEntry("a", []float64{1, 0, 0}),
		docEntry("b", []float64{0, 1, 0}),
	}))

	results, err := s.Search(ctx, []float64{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "note a", results[0].Content)
	assert.Equal(t, "Pneumonia", results[0].Metadata.Condition)
	assert.InDelta(t, 1.0, results[0].Score, 1e-12)
}

func TestSearchEmptyCollection(t *testing.T) {
	s, err := Open(t.TempDir(), "empty")
	require.NoError(t, err)

	results, err := s.Search(context.Background(), []float64{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir, "notes")
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, []domain.IndexEntry{docEntry("a", []float64{1, 0})}))
	require.NoError(t, s.Close())

	reopened, err := Open(dir, "notes")
	require.NoError(t, err)
	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := reopened.Search(ctx, []float64{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "note a", results[0].Content)
}

func TestCollectionIsolation(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	a, err := Open(dir, "corpus_a")
	require.NoError(t, err)
	require.NoError(t, a.Insert(ctx, []domain.IndexEntry{docEntry("a", []float64{1, 0})}))

	b, err := Open(dir, "corpus_b")
	require.NoError(t, err)
	results, err := b.Search(ctx, []float64{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results, "collection B must never return entries inserted into A")
}

func TestDuplicateInsertCreatesDuplicateEntries(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir(), "notes")
	require.NoError(t, err)

	e := docEntry("a", []float64{1, 0})
	require.NoError(t, s.Insert(ctx, []domain.IndexEntry{e}))
	require.NoError(t, s.Insert(ctx, []domain.IndexEntry{e}))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir(), "notes")
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, []domain.IndexEntry{docEntry("a", make([]float64, 384))}))

	_, err = s.Search(ctx, make([]float64, 768), 1)
	require.ErrorIs(t, err, domain.ErrConfiguration)

	err = s.Insert(ctx, []domain.IndexEntry{docEntry("b", make([]float64, 768))})
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRejectedBatchLeavesNoResidue(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(dir, "notes")
	require.NoError(t, err)

	err = s.Insert(ctx, []domain.IndexEntry{
		docEntry("a", []float64{1, 0}),
		docEntry("b", []float64{0, 1, 0}),
	})
	require.ErrorIs(t, err, domain.ErrConfiguration)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "a rejected batch must not leave entries behind")

	// a later successful insert must not carry the rejected batch along
	require.NoError(t, s.Insert(ctx, []domain.IndexEntry{docEntry("c", []float64{0, 1, 0})}))

	entries, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "c", entries[0].Document.ID)
	assert.Equal(t, 0, entries[0].Seq)

	reopened, err := Open(dir, "notes")
	require.NoError(t, err)
	count, err = reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "the persisted file must match the accepted entries only")
}

func TestAllPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir(), "notes")
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, []domain.IndexEntry{
		docEntry("a", []float64{1, 0}),
		docEntry("b", []float64{0, 1}),
	}))
	require.NoError(t, s.Insert(ctx, []domain.IndexEntry{docEntry("c", []float64{1, 1})}))

	entries, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, want, entries[i].Document.ID)
		assert.Equal(t, i, entries[i].Seq)
	}
}

func TestOpenRejectsCorruptIndex(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, "notes")
	require.NoError(t, err)
	require.NoError(t, s.Insert(context.Background(), []domain.IndexEntry{docEntry("a", []float64{1})}))

	// truncate the file to simulate corruption
	writeErr := writeFile(t, dir, "notes.json", "{not json")
	require.NoError(t, writeErr)

	_, err = Open(dir, "notes")
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func writeFile(t *testing.T, dir, name, content string) error {
	t.Helper()
	return os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644)
}
