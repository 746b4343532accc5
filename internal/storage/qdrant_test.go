package storage

import (
	"context"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder returns fixed-dimension vectors without any network calls.
type stubEmbedder struct {
	dimension int
}

func (e *stubEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, []int, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = make([]float32, e.dimension)
		for j, r := range texts[i] {
			if j >= e.dimension {
				break
			}
			vectors[i][j] = float32(r) / 1000.0
		}
	}
	return vectors, nil, nil
}

func (e *stubEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	vectors, _, _ := e.EmbedDocuments(context.Background(), []string{text})
	return vectors[0], nil
}

func TestUpsert_LengthMismatch(t *testing.T) {
	store := &Store{embedder: &stubEmbedder{dimension: VectorDimension}, logger: slog.Default()}

	_, err := store.Upsert(context.Background(),
		[]string{"one", "two"},
		[]ChunkMetadata{{Source: "a.txt"}},
		"ns", 0)

	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	// Wrong-dimension embeddings must be rejected before anything is written.
	store := &Store{embedder: &stubEmbedder{dimension: 512}, logger: slog.Default()}

	_, err := store.Upsert(context.Background(), []string{"some chunk text"}, nil, "ns", 0)

	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestUpsert_EmptyInput(t *testing.T) {
	store := &Store{embedder: &stubEmbedder{dimension: VectorDimension}, logger: slog.Default()}

	ids, err := store.Upsert(context.Background(), nil, nil, "ns", 0)

	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestNewStore_NotConfigured(t *testing.T) {
	_, err := NewStore("", 6334, &stubEmbedder{dimension: VectorDimension}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNormalize(t *testing.T) {
	vec := normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)
}

func TestNormalize_ZeroVector(t *testing.T) {
	// Zero vectors (embedding fallback) must survive normalization unchanged.
	vec := normalize(make([]float32, 8))
	for _, v := range vec {
		assert.Zero(t, v)
	}
}
