package indexer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicalrag/internal/domain"
	"clinicalrag/internal/embedding/hash"
	"clinicalrag/internal/vectorstore/file"
)

func TestInsertCleansBeforeEmbedding(t *testing.T) {
	ctx := context.Background()
	emb := hash.New(0)
	store, err := file.Open(t.TempDir(), "clinical_notes")
	require.NoError(t, err)

	ix := New(emb, store, nil)
	require.NoError(t, ix.Insert(ctx, []domain.Document{
		{ID: "a", Content: "  fever\n\nand\t cough  "},
	}))

	entries, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fever and cough", entries[0].Document.Content)

	// stored vector matches an embedding of the cleaned text
	want, err := emb.Embed(ctx, "fever and cough")
	require.NoError(t, err)
	assert.Equal(t, want, entries[0].Vector)
}

func TestInsertPreservesDocumentOrder(t *testing.T) {
	ctx := context.Background()
	store, err := file.Open(t.TempDir(), "clinical_notes")
	require.NoError(t, err)

	ix := New(hash.New(0), store, nil)
	require.NoError(t, ix.Insert(ctx, []domain.Document{
		{ID: "a", Content: "fever"},
		{ID: "b", Content: "cough"},
		{ID: "c", Content: "chills"},
	}))

	entries, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, want, entries[i].Document.ID)
	}
}

func TestInsertRejectsEmptyContent(t *testing.T) {
	store, err := file.Open(t.TempDir(), "clinical_notes")
	require.NoError(t, err)

	ix := New(hash.New(0), store, nil)
	err = ix.Insert(context.Background(), []domain.Document{
		{ID: "a", Content: "fever"},
		{ID: "b", Content: " \n\t "},
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count, "a rejected batch must not be partially stored")
}

func TestInsertNoDeduplication(t *testing.T) {
	ctx := context.Background()
	store, err := file.Open(t.TempDir(), "clinical_notes")
	require.NoError(t, err)

	ix := New(hash.New(0), store, nil)
	doc := []domain.Document{{ID: "a", Content: "fever and cough"}}
	require.NoError(t, ix.Insert(ctx, doc))
	require.NoError(t, ix.Insert(ctx, doc))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestInsertEmptyBatchIsNoop(t *testing.T) {
	store, err := file.Open(t.TempDir(), "clinical_notes")
	require.NoError(t, err)
	require.NoError(t, New(hash.New(0), store, nil).Insert(context.Background(), nil))
}
