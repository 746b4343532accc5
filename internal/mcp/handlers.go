package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mvarghese/legaldoc-ai/internal/retrieval"
	"github.com/mvarghese/legaldoc-ai/internal/storage"
)

// makeSearchHandler creates the search_document tool handler.
// Returns raw scored chunks without answer generation, scoped to the
// conversation's namespace.
func makeSearchHandler(store *storage.Store) func(
	context.Context, *mcp.CallToolRequest, SearchDocumentInput,
) (*mcp.CallToolResult, SearchDocumentOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchDocumentInput) (
		*mcp.CallToolResult, SearchDocumentOutput, error,
	) {
		topK := input.TopK
		if topK <= 0 {
			topK = retrieval.DefaultTopK
		}

		chunks, err := store.Query(ctx, input.Query, topK, input.ConversationID)
		if err != nil {
			return nil, SearchDocumentOutput{}, fmt.Errorf("search failed: %w", err)
		}

		if len(chunks) == 0 {
			return nil, SearchDocumentOutput{
				Results: []ChunkResult{},
				Message: "No matching chunks found. Check the conversation ID or try broader search terms.",
			}, nil
		}

		results := make([]ChunkResult, 0, len(chunks))
		for _, chunk := range chunks {
			results = append(results, ChunkResult{
				Text:   chunk.Text,
				Source: chunk.Source,
				Score:  chunk.Score,
			})
		}

		return nil, SearchDocumentOutput{Results: results}, nil
	}
}

// makeAskHandler creates the ask_document tool handler.
// Runs the full retrieval pipeline: similarity search then grounded answer
// generation.
func makeAskHandler(retriever *retrieval.Pipeline) func(
	context.Context, *mcp.CallToolRequest, AskDocumentInput,
) (*mcp.CallToolResult, AskDocumentOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskDocumentInput) (
		*mcp.CallToolResult, AskDocumentOutput, error,
	) {
		answer, err := retriever.AnswerQuery(ctx, input.Query, input.ConversationID)
		if err != nil {
			return nil, AskDocumentOutput{}, fmt.Errorf("answer failed: %w", err)
		}

		return nil, AskDocumentOutput{Answer: answer}, nil
	}
}

// makeDeleteHandler creates the delete_conversation tool handler.
func makeDeleteHandler(store *storage.Store) func(
	context.Context, *mcp.CallToolRequest, DeleteConversationInput,
) (*mcp.CallToolResult, DeleteConversationOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input DeleteConversationInput) (
		*mcp.CallToolResult, DeleteConversationOutput, error,
	) {
		if err := store.DeleteNamespace(ctx, input.ConversationID); err != nil {
			return nil, DeleteConversationOutput{}, fmt.Errorf("delete failed: %w", err)
		}

		return nil, DeleteConversationOutput{
			Deleted:        true,
			ConversationID: input.ConversationID,
		}, nil
	}
}
