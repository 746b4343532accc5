package storage

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// Embedder is the embedding provider the store drives during upserts and
// queries. Implementations must return one vector per input text, in input
// order, substituting zero vectors for failed items.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) (vectors [][]float32, degraded []int, err error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Store owns the lifecycle of vectors in the shared Qdrant collection:
// upserts, namespace-scoped similarity queries, and namespace deletion.
// It is the sole writer and deleter of vectors.
type Store struct {
	client   *qdrant.Client
	embedder Embedder
	logger   *slog.Logger
	host     string
	port     int
}

// NewStore connects to Qdrant and validates the connection with a health
// check. An empty host fails fast with ErrNotConfigured before any embedding
// work can be attempted.
func NewStore(host string, port int, embedder Embedder, logger *slog.Logger) (*Store, error) {
	if host == "" {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	store := &Store{
		client:   client,
		embedder: embedder,
		logger:   logger,
		host:     host,
		port:     port,
	}

	if err := store.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}

	return store, nil
}

// healthCheckWithRetry performs the startup health check with exponential
// backoff. Initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *Store) healthCheckWithRetry(ctx context.Context) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(exponentialBackoff, ctx))
}

// Health performs a single health check against Qdrant.
func (s *Store) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollection creates the shared collection if it does not exist:
// 3072-dimension vectors, cosine distance, payload indexes on the filterable
// fields. Idempotent.
func (s *Store) EnsureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}

	for _, name := range collections {
		if name == CollectionName {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: CollectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     VectorDimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	// Without a keyword index on conversation_id, every namespace-filtered
	// query degrades to a full scan.
	fields := []string{"conversation_id", "source", "chunk_id"}
	for _, field := range fields {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: CollectionName,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("create index for field %s: %w", field, err)
		}
	}

	return nil
}

// Upsert embeds the chunk texts, stamps every record with the target
// namespace, and writes vectors to the index in sub-batches of batchSize.
// Returned identifiers are in chunk order; when metadatas carry a ChunkID it
// is reused, otherwise a fresh one is assigned. metadatas may be nil, but a
// non-nil slice must align positionally with chunks.
func (s *Store) Upsert(ctx context.Context, chunks []string, metadatas []ChunkMetadata, namespace string, batchSize int) ([]string, error) {
	if metadatas != nil && len(metadatas) != len(chunks) {
		return nil, fmt.Errorf("%w: %d chunks, %d metadatas", ErrLengthMismatch, len(chunks), len(metadatas))
	}
	if batchSize <= 0 {
		batchSize = DefaultUpsertBatchSize
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	vectors, degraded, err := s.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(degraded) > 0 {
		s.logger.Warn("Some chunks stored with zero-vector embeddings",
			"namespace", namespace, "degraded", degraded)
	}

	ids := make([]string, len(chunks))
	points := make([]*qdrant.PointStruct, len(chunks))
	for i, vec := range vectors {
		if len(vec) != VectorDimension {
			return nil, fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(vec), VectorDimension)
		}

		id := uuid.New().String()
		var source string
		if metadatas != nil {
			if metadatas[i].ChunkID != "" {
				id = metadatas[i].ChunkID
			}
			source = metadatas[i].Source
		}
		ids[i] = id

		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(id),
			Vectors: qdrant.NewVectors(normalize(vec)...),
			Payload: qdrant.NewValueMap(map[string]any{
				"text":            chunks[i],
				"source":          source,
				"chunk_id":        id,
				"conversation_id": namespace,
			}),
		}
	}

	for start := 0; start < len(points); start += batchSize {
		end := min(start+batchSize, len(points))
		if err := s.upsertWithRetry(ctx, points[start:end]); err != nil {
			return nil, fmt.Errorf("upsert batch %d-%d: %w", start, end, err)
		}
	}

	s.logger.Info("Upserted chunks", "namespace", namespace, "count", len(chunks))
	return ids, nil
}

// upsertWithRetry performs one upsert request with exponential backoff.
func (s *Store) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: CollectionName,
			Points:         points,
		})
		return err
	}, backoff.WithContext(exponentialBackoff, ctx))
}

// Query embeds the query text and returns the topK nearest chunks restricted
// to the given namespace, most similar first. Matches outside the namespace
// are never returned; an unpopulated namespace yields an empty result, not an
// error.
func (s *Store) Query(ctx context.Context, queryText string, topK int, namespace string) ([]ScoredChunk, error) {
	if topK <= 0 {
		topK = DefaultQueryTopK
	}

	vec, err := s.embedder.EmbedQuery(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vec) != VectorDimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vec), VectorDimension)
	}

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("conversation_id", namespace),
		},
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: CollectionName,
		Query:          qdrant.NewQuery(normalize(vec)...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}

	chunks := make([]ScoredChunk, 0, len(results))
	for _, result := range results {
		payload := result.Payload
		chunks = append(chunks, ScoredChunk{
			ID:             result.Id.GetUuid(),
			Text:           payload["text"].GetStringValue(),
			Source:         payload["source"].GetStringValue(),
			ConversationID: payload["conversation_id"].GetStringValue(),
			Score:          result.Score,
		})
	}

	return chunks, nil
}

// DeleteNamespace removes every vector under the given namespace. Deleting an
// empty or nonexistent namespace is not an error.
func (s *Store) DeleteNamespace(ctx context.Context, namespace string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: CollectionName,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("conversation_id", namespace),
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("delete namespace %s: %w", namespace, err)
	}
	s.logger.Info("Deleted namespace", "namespace", namespace)
	return nil
}

// Close closes the Qdrant client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// normalize L2-normalizes a vector. The collection uses cosine distance, so
// this only makes the metric explicit; zero vectors pass through unchanged.
func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}
