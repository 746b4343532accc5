// Package retrieval answers natural-language queries against one
// conversation's ingested chunks.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mvarghese/legaldoc-ai/internal/storage"
)

// ErrRetrieval is the single error surfaced for any internal failure while
// answering a query. No partial or cached answers are returned.
var ErrRetrieval = errors.New("failed to answer query")

// DefaultTopK is the number of nearest chunks handed to the answer generator.
// It aliases the store's default so the two layers cannot drift apart.
const DefaultTopK = storage.DefaultQueryTopK

// Querier performs namespace-scoped similarity search. *storage.Store
// satisfies this; the pipeline is read-only with respect to the store.
type Querier interface {
	Query(ctx context.Context, queryText string, topK int, namespace string) ([]storage.ScoredChunk, error)
}

// AnswerGenerator turns a query plus ranked excerpts into an answer.
// *genai.Generator satisfies this.
type AnswerGenerator interface {
	Answer(ctx context.Context, query string, contexts []string) (string, error)
}

// Pipeline composes query embedding, top-K retrieval, and answer generation.
type Pipeline struct {
	store     Querier
	generator AnswerGenerator
	topK      int
	logger    *slog.Logger
}

// NewPipeline creates a retrieval pipeline. If topK is 0, DefaultTopK is used.
func NewPipeline(store Querier, generator AnswerGenerator, topK int, logger *slog.Logger) *Pipeline {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:     store,
		generator: generator,
		topK:      topK,
		logger:    logger,
	}
}

// AnswerQuery retrieves the most relevant chunks from the conversation's
// namespace, in the store's similarity order, and hands them with the query
// to the answer generator. Chunks from other namespaces are never consulted.
func (p *Pipeline) AnswerQuery(ctx context.Context, query, namespace string) (string, error) {
	results, err := p.store.Query(ctx, query, p.topK, namespace)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRetrieval, err)
	}
	p.logger.Debug("Retrieved chunks", "namespace", namespace, "count", len(results))

	contexts := make([]string, len(results))
	for i, r := range results {
		contexts[i] = r.Text
	}

	answer, err := p.generator.Answer(ctx, query, contexts)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRetrieval, err)
	}
	return answer, nil
}
