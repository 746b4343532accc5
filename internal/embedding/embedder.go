package embedding

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
)

const (
	// EmbeddingModel is the OpenAI model used for generating embeddings.
	EmbeddingModel = "text-embedding-3-large"

	// DefaultBatchSize keeps each embedding request small enough to stay
	// under per-request rate and size limits.
	DefaultBatchSize = 10

	// queryRetryDelay is the fixed backoff before the single rate-limit
	// retry of a query embedding.
	queryRetryDelay = 10 * time.Second
)

// api is the narrow provider surface the Embedder drives. *Client satisfies
// it; tests substitute a fake to exercise the fallback policy offline.
type api interface {
	EmbedBatch(ctx context.Context, texts []string, dimensions int) ([][]float32, error)
	EmbedOne(ctx context.Context, text string, dimensions int) ([]float32, error)
}

// Embedder converts texts into fixed-dimension vectors with sequential
// sub-batching and per-item zero-vector fallback. A provider failure degrades
// the affected items instead of failing the caller, so ingestion and query
// paths stay available under transient provider errors.
type Embedder struct {
	api       api
	dimension int
	batchSize int
	logger    *slog.Logger
	sleep     func(time.Duration)
}

// NewEmbedder creates an Embedder producing vectors of the given dimension.
// The dimension must come from the index's configured dimensionality so the
// two can never drift apart. If batchSize is 0, DefaultBatchSize is used.
func NewEmbedder(client *Client, dimension, batchSize int, logger *slog.Logger) *Embedder {
	return newEmbedder(client, dimension, batchSize, logger)
}

func newEmbedder(api api, dimension, batchSize int, logger *slog.Logger) *Embedder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Embedder{
		api:       api,
		dimension: dimension,
		batchSize: batchSize,
		logger:    logger,
		sleep:     time.Sleep,
	}
}

// Dimension returns the configured output dimensionality.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// EmbedDocuments embeds texts in sequential sub-batches, returning exactly one
// vector per input in input order. When a sub-batch request fails, the batch
// is retried item by item; items that still fail are substituted with a
// dimension-correct zero vector and reported through degraded. The returned
// error is always nil today; it remains in the signature for the interface in
// internal/storage.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, []int, error) {
	vectors := make([][]float32, 0, len(texts))
	var degraded []int

	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		batch := texts[start:end]

		embeddings, err := e.api.EmbedBatch(ctx, batch, e.dimension)
		if err != nil || len(embeddings) != len(batch) {
			if err != nil {
				e.logger.Warn("Batch embedding failed, retrying items individually",
					"batch_start", start, "batch_size", len(batch), "error", err)
			}
			embeddings = make([][]float32, len(batch))
			for i, text := range batch {
				vec, itemErr := e.api.EmbedOne(ctx, text, e.dimension)
				if itemErr != nil || len(vec) != e.dimension {
					e.logger.Warn("Embedding failed, substituting zero vector",
						"index", start+i, "error", itemErr)
					vec = e.zeroVector()
					degraded = append(degraded, start+i)
				}
				embeddings[i] = vec
			}
		}
		vectors = append(vectors, embeddings...)
	}

	return vectors, degraded, nil
}

// EmbedQuery embeds a single query text. On a rate-limit failure it waits a
// fixed interval and retries once with explicit output dimensionality; if the
// retry also fails, or the failure is not rate-limit related, a zero vector is
// returned rather than an error.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.api.EmbedOne(ctx, text, 0)
	if err == nil && len(vec) == e.dimension {
		return vec, nil
	}

	if err != nil && isRateLimitError(err) {
		e.logger.Warn("Rate limit on query embedding, retrying after backoff", "error", err)
		e.sleep(queryRetryDelay)

		vec, err = e.api.EmbedOne(ctx, text, e.dimension)
		if err == nil && len(vec) == e.dimension {
			return vec, nil
		}
	}

	e.logger.Warn("Query embedding failed, substituting zero vector", "error", err)
	return e.zeroVector(), nil
}

func (e *Embedder) zeroVector() []float32 {
	return make([]float32, e.dimension)
}

// isRateLimitError reports whether the error is a quota or rate-limit error,
// either by HTTP status or by message content.
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == 429 {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit")
}
