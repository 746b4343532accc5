// Package ingest turns uploaded documents into namespaced vectors: extract
// text, segment it, and hand the chunks to the vector store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mvarghese/legaldoc-ai/internal/extract"
	"github.com/mvarghese/legaldoc-ai/internal/storage"
)

// ErrEmptyDocument is returned when segmentation yields no usable chunks:
// the document is empty, or all of it fell below the noise threshold.
var ErrEmptyDocument = errors.New("document is empty or could not be processed")

// Splitter segments raw text into chunks. *textsplit.Splitter satisfies this.
type Splitter interface {
	Split(text string) []string
}

// Upserter writes chunk vectors into a namespace. *storage.Store satisfies
// this.
type Upserter interface {
	Upsert(ctx context.Context, chunks []string, metadatas []storage.ChunkMetadata, namespace string, batchSize int) ([]string, error)
}

// Result contains statistics about one ingestion run.
type Result struct {
	ConversationID string
	Source         string
	ChunkCount     int
	ChunkIDs       []string
	Duration       time.Duration
}

// Pipeline orchestrates extraction, segmentation, and storage for one
// document per call. It holds no state between calls; callers retain the
// returned conversation identifier for subsequent queries.
type Pipeline struct {
	splitter Splitter
	store    Upserter
	logger   *slog.Logger
}

// NewPipeline creates an ingestion pipeline with the given components.
func NewPipeline(splitter Splitter, store Upserter, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		splitter: splitter,
		store:    store,
		logger:   logger,
	}
}

// IngestFile extracts the file's text and ingests it under a fresh
// conversation namespace. Unsupported extensions fail before any chunking.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*Result, error) {
	text, err := extract.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}
	return p.IngestText(ctx, text, filepath.Base(path))
}

// IngestText ingests raw text under a fresh conversation namespace.
func (p *Pipeline) IngestText(ctx context.Context, text, source string) (*Result, error) {
	return p.IngestInto(ctx, text, source, uuid.New().String())
}

// IngestInto ingests raw text into an existing namespace, so several
// documents can share one conversation. Chunk order is preserved end to end
// from segmentation through identifier assignment through storage.
func (p *Pipeline) IngestInto(ctx context.Context, text, source, namespace string) (*Result, error) {
	start := time.Now()

	chunks := p.splitter.Split(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%s: %w", source, ErrEmptyDocument)
	}
	p.logger.Debug("Segmented document", "source", source, "chunks", len(chunks))

	metadatas := make([]storage.ChunkMetadata, len(chunks))
	for i := range chunks {
		metadatas[i] = storage.ChunkMetadata{
			Source:  source,
			ChunkID: uuid.New().String(),
		}
	}

	ids, err := p.store.Upsert(ctx, chunks, metadatas, namespace, 0)
	if err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}

	result := &Result{
		ConversationID: namespace,
		Source:         source,
		ChunkCount:     len(chunks),
		ChunkIDs:       ids,
		Duration:       time.Since(start),
	}

	p.logger.Info("Ingested document",
		"source", source,
		"namespace", namespace,
		"chunks", result.ChunkCount,
		"duration", result.Duration,
	)
	return result, nil
}
