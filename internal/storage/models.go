package storage

// ChunkMetadata is the payload attached to each stored vector. Text is
// duplicated into the payload at upsert time so retrieval never needs a
// second lookup.
type ChunkMetadata struct {
	Source  string // original filename or path the chunk came from
	ChunkID string // stable chunk identifier; assigned at ingestion if empty
}

// ScoredChunk is one similarity match returned by Query, reconstructed from
// the stored payload.
type ScoredChunk struct {
	ID             string
	Text           string
	Source         string
	ConversationID string
	Score          float32
}

// CollectionName is the single Qdrant collection shared by all conversations.
// Isolation happens through the conversation_id payload field, not through
// separate collections.
const CollectionName = "doc-embeddings"

// VectorDimension is the embedding size for text-embedding-3-large. This is
// the single source of truth for dimensionality; the embedder is constructed
// from it and every vector is validated against it before it reaches the
// index.
const VectorDimension = 3072

// DefaultUpsertBatchSize bounds the number of points per upsert request.
const DefaultUpsertBatchSize = 100

// DefaultQueryTopK is the number of nearest chunks returned when the caller
// does not ask for a specific count.
const DefaultQueryTopK = 4
