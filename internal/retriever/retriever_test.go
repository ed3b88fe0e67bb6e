package retriever

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicalrag/internal/domain"
	"clinicalrag/internal/embedding/hash"
	"clinicalrag/internal/indexer"
	"clinicalrag/internal/vectorstore/file"
)

func newFixture(t *testing.T, contents ...string) *Retriever {
	t.Helper()
	emb := hash.New(0)
	store, err := file.Open(t.TempDir(), "clinical_notes")
	require.NoError(t, err)

	if len(contents) > 0 {
		docs := make([]domain.Document, len(contents))
		for i, c := range contents {
			docs[i] = domain.Document{
				ID:       fmt.Sprintf("doc-%d", i),
				Content:  c,
				Metadata: domain.Metadata{Condition: "Test", Source: fmt.Sprintf("doc-%d.json", i)},
			}
		}
		require.NoError(t, indexer.New(emb, store, nil).Insert(context.Background(), docs))
	}
	return New(emb, store)
}

func TestSelfRetrieval(t *testing.T) {
	contents := []string{
		"acute bacterial pneumonia with productive cough",
		"myocardial infarction with chest pain radiating",
		"diabetic ketoacidosis with altered mental status",
	}
	r := newFixture(t, contents...)

	for _, c := range contents {
		results, err := r.Retrieve(context.Background(), c, 3)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, c, results[0].Content, "a document queried by its own content must rank first")
		for _, other := range results[1:] {
			assert.LessOrEqual(t, other.Score, results[0].Score)
		}
	}
}

func TestFeverQueryRanksFeverNotesFirst(t *testing.T) {
	r := newFixture(t, "fever and cough", "broken arm X-ray", "fever and chills")

	results, err := r.Retrieve(context.Background(), "patient has fever", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.Contains(t, res.Content, "fever", "fracture note must not outrank the fever notes")
	}
}

func TestRetrieveNeverExceedsKOrCorpusSize(t *testing.T) {
	r := newFixture(t, "fever", "cough", "chills")

	results, err := r.Retrieve(context.Background(), "fever", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = r.Retrieve(context.Background(), "fever", 50)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestRetrieveEmptyIndex(t *testing.T) {
	r := newFixture(t)
	results, err := r.Retrieve(context.Background(), "anything at all", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveRejectsInvalidInput(t *testing.T) {
	r := newFixture(t, "fever")

	_, err := r.Retrieve(context.Background(), "   ", 3)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = r.Retrieve(context.Background(), "fever", 0)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = r.Retrieve(context.Background(), "fever", -2)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFormatContextShape(t *testing.T) {
	results := []domain.ScoredResult{
		{Content: "fever and cough", Metadata: domain.Metadata{Condition: "Pneumonia"}, Score: 0.9},
		{Content: "fever and chills", Metadata: domain.Metadata{Condition: "Sepsis"}, Score: 0.7},
	}
	got := FormatContext(results)
	want := "--- Document 1 ---\n" +
		"Condition: Pneumonia\n" +
		"Content: fever and cough\n\n" +
		"--- Document 2 ---\n" +
		"Condition: Sepsis\n" +
		"Content: fever and chills\n\n"
	assert.Equal(t, want, got)
}

func TestFormatContextDeterministic(t *testing.T) {
	results := []domain.ScoredResult{
		{Content: "fever and cough", Metadata: domain.Metadata{Condition: "Pneumonia"}, Score: 0.9},
	}
	assert.Equal(t, FormatContext(results), FormatContext(results))
	assert.Equal(t, "", FormatContext(nil))
}
