package storage

import "errors"

var (
	ErrNotConfigured     = errors.New("vector store not configured")
	ErrQdrantUnreachable = errors.New("qdrant server unreachable")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrLengthMismatch    = errors.New("chunks and metadata length mismatch")
)
