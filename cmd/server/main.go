// Package main provides the document assistant server entry point.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mvarghese/legaldoc-ai/internal/api"
	"github.com/mvarghese/legaldoc-ai/internal/embedding"
	"github.com/mvarghese/legaldoc-ai/internal/genai"
	"github.com/mvarghese/legaldoc-ai/internal/ingest"
	mcpserver "github.com/mvarghese/legaldoc-ai/internal/mcp"
	"github.com/mvarghese/legaldoc-ai/internal/retrieval"
	"github.com/mvarghese/legaldoc-ai/internal/session"
	"github.com/mvarghese/legaldoc-ai/internal/storage"
	"github.com/mvarghese/legaldoc-ai/internal/textsplit"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	logger := slog.Default()

	// Configuration from environment
	qdrantHost := getEnv("QDRANT_HOST", "localhost")
	qdrantPort := getEnvInt("QDRANT_PORT", 6334)
	port := getEnv("PORT", "8080")

	// Initialize embedding client
	embeddingClient, err := embedding.NewClient()
	if err != nil {
		log.Fatalf("failed to create embedding client: %v", err)
	}
	embedder := embedding.NewEmbedder(embeddingClient, storage.VectorDimension, 0, logger)

	// Initialize storage
	store, err := storage.NewStore(qdrantHost, qdrantPort, embedder, logger)
	if err != nil {
		log.Fatalf("failed to connect to Qdrant: %v", err)
	}
	defer store.Close()

	// Ensure collection exists
	if err := store.EnsureCollection(ctx); err != nil {
		log.Fatalf("failed to ensure collection: %v", err)
	}

	// Initialize generation
	generator := genai.NewGenerator(embeddingClient.Client())

	// Initialize pipelines
	splitter, err := textsplit.NewSplitter(textsplit.DefaultChunkSize, textsplit.DefaultChunkOverlap)
	if err != nil {
		log.Fatalf("failed to create splitter: %v", err)
	}
	ingestor := ingest.NewPipeline(splitter, store, logger)
	retriever := retrieval.NewPipeline(store, generator, retrieval.DefaultTopK, logger)

	// HTTP API
	handlers := api.NewHandlers(&api.Config{
		Ingestor:  ingestor,
		Answerer:  retriever,
		Extractor: generator,
		Deleter:   store,
		Sessions:  session.NewStore(),
		Health:    store,
		Logger:    logger,
	})
	mux := handlers.Router()

	// MCP endpoint (for remote client connections)
	server := mcpserver.NewServer(&mcpserver.Config{
		Store:     store,
		Retriever: retriever,
	})
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(server, nil))

	// Check if running in MCP stdio mode (local development)
	stdioMode := getEnv("MCP_STDIO", "false") == "true"

	if stdioMode {
		// Stdio mode: run MCP server over stdin/stdout for local clients.
		// The HTTP API stays up in the background.
		go func() {
			addr := "0.0.0.0:" + port
			log.Printf("Starting HTTP server on %s", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Printf("HTTP server error: %v", err)
			}
		}()

		log.Println("Starting MCP server (stdio mode)...")
		if err := server.Run(ctx); err != nil {
			log.Printf("server error: %v", err)
			os.Exit(1)
		}
		return
	}

	addr := "0.0.0.0:" + port
	log.Printf("Starting HTTP server on %s (API at /, MCP at /mcp, health at /health)", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("HTTP server error: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
