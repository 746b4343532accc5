package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mvarghese/legaldoc-ai/internal/retrieval"
	"github.com/mvarghese/legaldoc-ai/internal/storage"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server    *mcp.Server
	store     *storage.Store
	retriever *retrieval.Pipeline
}

// Config holds server dependencies.
type Config struct {
	Store     *storage.Store
	Retriever *retrieval.Pipeline
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "legaldoc-ai-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_document",
		Description: "Semantically search one ingested document's chunks. Returns the most similar passages with sources and scores.",
	}, makeSearchHandler(cfg.Store))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_document",
		Description: "Answer a question using an ingested document. Retrieves the most relevant chunks and generates a grounded answer.",
	}, makeAskHandler(cfg.Retriever))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_conversation",
		Description: "Delete every indexed chunk belonging to a conversation. The conversation ID can no longer be queried afterwards.",
	}, makeDeleteHandler(cfg.Store))

	return &Server{
		server:    server,
		store:     cfg.Store,
		retriever: cfg.Retriever,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
