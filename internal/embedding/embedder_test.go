package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDimension = 8

// fakeAPI scripts provider behavior: batch calls can be forced to fail, and
// individual texts can be marked as failing.
type fakeAPI struct {
	dimension   int
	failBatches bool
	failTexts   map[string]error
	batchSizes  []int
	oneCalls    []oneCall
}

type oneCall struct {
	text       string
	dimensions int
}

func (f *fakeAPI) EmbedBatch(_ context.Context, texts []string, _ int) ([][]float32, error) {
	f.batchSizes = append(f.batchSizes, len(texts))
	if f.failBatches {
		return nil, errors.New("service unavailable")
	}
	for _, text := range texts {
		if err, ok := f.failTexts[text]; ok {
			return nil, err
		}
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = f.vectorFor(text)
	}
	return vectors, nil
}

func (f *fakeAPI) EmbedOne(_ context.Context, text string, dimensions int) ([]float32, error) {
	f.oneCalls = append(f.oneCalls, oneCall{text: text, dimensions: dimensions})
	if f.failBatches {
		return nil, errors.New("service unavailable")
	}
	if err, ok := f.failTexts[text]; ok {
		return nil, err
	}
	return f.vectorFor(text), nil
}

// vectorFor produces a distinct deterministic vector per text.
func (f *fakeAPI) vectorFor(text string) []float32 {
	vec := make([]float32, f.dimension)
	for i, r := range text {
		if i >= f.dimension {
			break
		}
		vec[i] = float32(r)
	}
	return vec
}

func newTestEmbedder(api *fakeAPI, batchSize int) *Embedder {
	e := newEmbedder(api, testDimension, batchSize, nil)
	e.sleep = func(time.Duration) {}
	return e
}

func TestEmbedDocuments_OrderAndLength(t *testing.T) {
	api := &fakeAPI{dimension: testDimension}
	e := newTestEmbedder(api, 10)

	texts := []string{"alpha", "bravo", "charlie"}
	vectors, degraded, err := e.EmbedDocuments(context.Background(), texts)

	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	assert.Empty(t, degraded)
	for i, text := range texts {
		assert.Equal(t, api.vectorFor(text), vectors[i], "vector %d out of order", i)
	}
}

func TestEmbedDocuments_SubBatching(t *testing.T) {
	api := &fakeAPI{dimension: testDimension}
	e := newTestEmbedder(api, 10)

	texts := make([]string, 25)
	for i := range texts {
		texts[i] = string(rune('a' + i))
	}

	vectors, _, err := e.EmbedDocuments(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, vectors, 25)
	assert.Equal(t, []int{10, 10, 5}, api.batchSizes, "sequential sub-batches of 10")
}

func TestEmbedDocuments_SingleItemFailure(t *testing.T) {
	// One poisoned text fails its sub-batch; the per-item retry degrades only
	// that item to a zero vector.
	texts := []string{"one", "two", "three", "four", "five"}
	api := &fakeAPI{
		dimension: testDimension,
		failTexts: map[string]error{"two": errors.New("quota exceeded")},
	}
	e := newTestEmbedder(api, 10)

	vectors, degraded, err := e.EmbedDocuments(context.Background(), texts)

	require.NoError(t, err)
	require.Len(t, vectors, len(texts), "output length always equals input length")
	assert.Equal(t, []int{1}, degraded)
	assert.Equal(t, make([]float32, testDimension), vectors[1], "failed item becomes zero vector")
	assert.Equal(t, api.vectorFor("one"), vectors[0])
	assert.Equal(t, api.vectorFor("three"), vectors[2])
}

func TestEmbedDocuments_TotalFailure(t *testing.T) {
	api := &fakeAPI{dimension: testDimension, failBatches: true}
	e := newTestEmbedder(api, 2)

	texts := []string{"a", "b", "c"}
	vectors, degraded, err := e.EmbedDocuments(context.Background(), texts)

	require.NoError(t, err, "total provider failure never aborts the batch")
	require.Len(t, vectors, len(texts))
	assert.Equal(t, []int{0, 1, 2}, degraded)
	for i, vec := range vectors {
		assert.Len(t, vec, testDimension, "vector %d has wrong dimension", i)
		assert.Equal(t, make([]float32, testDimension), vec)
	}
}

func TestEmbedQuery_Success(t *testing.T) {
	api := &fakeAPI{dimension: testDimension}
	e := newTestEmbedder(api, 10)

	vec, err := e.EmbedQuery(context.Background(), "what is the deadline")

	require.NoError(t, err)
	assert.Equal(t, api.vectorFor("what is the deadline"), vec)
	require.Len(t, api.oneCalls, 1)
	assert.Zero(t, api.oneCalls[0].dimensions, "first attempt uses model default dimensionality")
}

func TestEmbedQuery_RateLimitRetry(t *testing.T) {
	api := &fakeAPI{
		dimension: testDimension,
		failTexts: map[string]error{"q": errors.New("429 rate limit exceeded")},
	}
	e := newTestEmbedder(api, 10)

	var slept time.Duration
	e.sleep = func(d time.Duration) {
		slept = d
		delete(api.failTexts, "q") // provider recovers after the backoff
	}

	vec, err := e.EmbedQuery(context.Background(), "q")

	require.NoError(t, err)
	assert.Equal(t, api.vectorFor("q"), vec)
	assert.Equal(t, 10*time.Second, slept)
	require.Len(t, api.oneCalls, 2)
	assert.Equal(t, testDimension, api.oneCalls[1].dimensions, "retry passes explicit dimensionality")
}

func TestEmbedQuery_RetryAlsoFails(t *testing.T) {
	api := &fakeAPI{
		dimension: testDimension,
		failTexts: map[string]error{"q": errors.New("quota exhausted for project")},
	}
	e := newTestEmbedder(api, 10)

	vec, err := e.EmbedQuery(context.Background(), "q")

	require.NoError(t, err)
	assert.Equal(t, make([]float32, testDimension), vec)
	assert.Len(t, api.oneCalls, 2)
}

func TestEmbedQuery_NonRateLimitFailure(t *testing.T) {
	api := &fakeAPI{
		dimension: testDimension,
		failTexts: map[string]error{"q": errors.New("connection reset")},
	}
	e := newTestEmbedder(api, 10)

	vec, err := e.EmbedQuery(context.Background(), "q")

	require.NoError(t, err)
	assert.Equal(t, make([]float32, testDimension), vec)
	assert.Len(t, api.oneCalls, 1, "non-rate-limit failures are not retried")
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, isRateLimitError(errors.New("Quota exceeded")))
	assert.True(t, isRateLimitError(errors.New("hit the rate limit, slow down")))
	assert.False(t, isRateLimitError(errors.New("connection refused")))
}
