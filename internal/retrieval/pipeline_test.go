package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvarghese/legaldoc-ai/internal/storage"
)

type fakeQuerier struct {
	results   []storage.ScoredChunk
	err       error
	topK      int
	namespace string
}

func (f *fakeQuerier) Query(_ context.Context, _ string, topK int, namespace string) ([]storage.ScoredChunk, error) {
	f.topK = topK
	f.namespace = namespace
	return f.results, f.err
}

type fakeGenerator struct {
	answer   string
	err      error
	query    string
	contexts []string
}

func (f *fakeGenerator) Answer(_ context.Context, query string, contexts []string) (string, error) {
	f.query = query
	f.contexts = contexts
	return f.answer, f.err
}

func TestAnswerQuery(t *testing.T) {
	store := &fakeQuerier{
		results: []storage.ScoredChunk{
			{Text: "The final deadline for bid submission is 30 September.", Score: 0.92},
			{Text: "Late bids will be rejected without review.", Score: 0.81},
		},
	}
	generator := &fakeGenerator{answer: "Bids are due by 30 September."}
	p := NewPipeline(store, generator, 0, nil)

	answer, err := p.AnswerQuery(context.Background(), "when are bids due?", "conv-1")
	require.NoError(t, err)

	assert.Equal(t, "Bids are due by 30 September.", answer)
	assert.Equal(t, "conv-1", store.namespace)
	assert.Equal(t, DefaultTopK, store.topK)
	assert.Equal(t, "when are bids due?", generator.query)
	require.Len(t, generator.contexts, 2)
	assert.Equal(t, store.results[0].Text, generator.contexts[0], "store ranking is preserved, not re-sorted")
	assert.Equal(t, store.results[1].Text, generator.contexts[1])
}

func TestAnswerQuery_EmptyNamespace(t *testing.T) {
	store := &fakeQuerier{}
	generator := &fakeGenerator{answer: "The document does not cover this."}
	p := NewPipeline(store, generator, 5, nil)

	answer, err := p.AnswerQuery(context.Background(), "anything", "never-populated")
	require.NoError(t, err, "an unpopulated namespace is not an error")

	assert.Equal(t, "The document does not cover this.", answer)
	assert.Empty(t, generator.contexts)
	assert.Equal(t, 5, store.topK)
}

func TestAnswerQuery_StoreFailure(t *testing.T) {
	store := &fakeQuerier{err: errors.New("connection refused")}
	p := NewPipeline(store, &fakeGenerator{}, 0, nil)

	_, err := p.AnswerQuery(context.Background(), "q", "conv-1")
	assert.ErrorIs(t, err, ErrRetrieval)
}

func TestAnswerQuery_GeneratorFailure(t *testing.T) {
	store := &fakeQuerier{results: []storage.ScoredChunk{{Text: "clause"}}}
	generator := &fakeGenerator{err: errors.New("model overloaded")}
	p := NewPipeline(store, generator, 0, nil)

	_, err := p.AnswerQuery(context.Background(), "q", "conv-1")
	assert.ErrorIs(t, err, ErrRetrieval)
}
