// Package main provides the docctl CLI for document ingestion and extraction.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mvarghese/legaldoc-ai/internal/embedding"
	"github.com/mvarghese/legaldoc-ai/internal/extract"
	"github.com/mvarghese/legaldoc-ai/internal/genai"
	"github.com/mvarghese/legaldoc-ai/internal/ingest"
	"github.com/mvarghese/legaldoc-ai/internal/retrieval"
	"github.com/mvarghese/legaldoc-ai/internal/source"
	"github.com/mvarghese/legaldoc-ai/internal/storage"
	"github.com/mvarghese/legaldoc-ai/internal/textsplit"
)

var rootCmd = &cobra.Command{
	Use:   "docctl",
	Short: "Document assistant management tool",
	Long: `CLI tool for ingesting documents into the vector index and running
retrieval and extraction against them.

Environment variables:
  QDRANT_HOST    Qdrant hostname (default: localhost)
  QDRANT_PORT    Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY OpenAI API key for embeddings and generation (required)
  GITHUB_TOKEN   GitHub token for repository ingestion (optional)`,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Ingest a document into a new conversation",
	Long: `Extracts text from the file (.pdf, .txt, .docx, .md), chunks it,
embeds the chunks, and stores them under a fresh conversation ID. Prints the
conversation ID to use with ask and delete.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var ingestRepoCmd = &cobra.Command{
	Use:   "ingest-repo <owner/repo>",
	Short: "Ingest every document from a GitHub repository path",
	Long: `Fetches all .md and .txt files under the given repository path and
ingests them into a single shared conversation.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngestRepo,
}

var askCmd = &cobra.Command{
	Use:   "ask <conversation-id> <question>",
	Short: "Ask a question against an ingested document",
	Args:  cobra.ExactArgs(2),
	RunE:  runAsk,
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize <file>",
	Short: "Generate a structured summary of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummarize,
}

var departmentCmd = &cobra.Command{
	Use:   "department <file>",
	Short: "Predict which departments a document concerns",
	Args:  cobra.ExactArgs(1),
	RunE:  runDepartment,
}

var lastDateCmd = &cobra.Command{
	Use:   "last-date <file>",
	Short: "Extract the final actionable deadline from a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runLastDate,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <conversation-id>",
	Short: "Delete every indexed chunk belonging to a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var (
	repoPath     string
	language     string
	department   string
	questionTopK int
)

func init() {
	ingestRepoCmd.Flags().StringVar(&repoPath, "path", "", "repository subdirectory to ingest (default: repository root)")
	summarizeCmd.Flags().StringVar(&language, "language", "English", "output language for the summary")
	summarizeCmd.Flags().StringVar(&department, "department", "", "department to tailor the summary for")
	askCmd.Flags().IntVar(&questionTopK, "top-k", retrieval.DefaultTopK, "number of chunks to retrieve")

	rootCmd.AddCommand(ingestCmd, ingestRepoCmd, askCmd, summarizeCmd, departmentCmd, lastDateCmd, deleteCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newStore wires the embedding client and Qdrant store from the environment.
func newStore(ctx context.Context) (*storage.Store, *embedding.Client, error) {
	client, err := embedding.NewClient()
	if err != nil {
		return nil, nil, fmt.Errorf("create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(client, storage.VectorDimension, 0, slog.Default())

	store, err := storage.NewStore(getEnv("QDRANT_HOST", "localhost"), getEnvInt("QDRANT_PORT", 6334), embedder, slog.Default())
	if err != nil {
		return nil, nil, fmt.Errorf("connect to Qdrant: %w", err)
	}

	if err := store.EnsureCollection(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("ensure collection: %w", err)
	}

	return store, client, nil
}

func newIngestor(store *storage.Store) (*ingest.Pipeline, error) {
	splitter, err := textsplit.NewSplitter(textsplit.DefaultChunkSize, textsplit.DefaultChunkOverlap)
	if err != nil {
		return nil, err
	}
	return ingest.NewPipeline(splitter, store, slog.Default()), nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, _, err := newStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	ingestor, err := newIngestor(store)
	if err != nil {
		return err
	}

	result, err := ingestor.IngestFile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	fmt.Printf("Ingested %s\n", result.Source)
	fmt.Printf("  Conversation: %s\n", result.ConversationID)
	fmt.Printf("  Chunks: %d\n", result.ChunkCount)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Millisecond))
	return nil
}

func runIngestRepo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	owner, repo, ok := strings.Cut(args[0], "/")
	if !ok || owner == "" || repo == "" {
		return fmt.Errorf("expected owner/repo, got %q", args[0])
	}

	store, _, err := newStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	ingestor, err := newIngestor(store)
	if err != nil {
		return err
	}

	ghClient, err := source.NewClient()
	if err != nil {
		return fmt.Errorf("create GitHub client: %w", err)
	}
	fetcher := source.NewFetcher(ghClient, owner, repo, repoPath)

	paths, err := fetcher.ListDocs(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no ingestible documents under %s/%s", args[0], repoPath)
	}

	// All repo documents share one conversation so they can be queried together.
	conversationID := uuid.NewString()
	totalChunks := 0
	failed := 0

	fmt.Printf("Ingesting %d documents into conversation %s...\n", len(paths), conversationID)
	for _, path := range paths {
		doc, err := fetcher.FetchDoc(ctx, path)
		if err != nil {
			fmt.Printf("  - %s: fetch failed: %v\n", path, err)
			failed++
			continue
		}

		text := doc.Content
		if strings.HasSuffix(strings.ToLower(path), ".md") {
			text, err = extract.FromMarkdown([]byte(doc.Content))
			if err != nil {
				fmt.Printf("  - %s: extract failed: %v\n", path, err)
				failed++
				continue
			}
		}

		result, err := ingestor.IngestInto(ctx, text, path, conversationID)
		if err != nil {
			fmt.Printf("  - %s: ingest failed: %v\n", path, err)
			failed++
			continue
		}
		totalChunks += result.ChunkCount
	}

	fmt.Println()
	fmt.Println("Ingestion complete!")
	fmt.Printf("  Conversation: %s\n", conversationID)
	fmt.Printf("  Documents: %d/%d\n", len(paths)-failed, len(paths))
	fmt.Printf("  Chunks: %d\n", totalChunks)
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, client, err := newStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	generator := genai.NewGenerator(client.Client())
	retriever := retrieval.NewPipeline(store, generator, questionTopK, slog.Default())

	answer, err := retriever.AnswerQuery(ctx, args[1], args[0])
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	fmt.Println(answer)
	return nil
}

func runSummarize(cmd *cobra.Command, args []string) error {
	content, generator, err := loadForExtraction(args[0])
	if err != nil {
		return err
	}

	summary := generator.GenerateSummary(cmd.Context(), content, language, department)

	fmt.Printf("Category: %s\n", summary.Category)
	fmt.Printf("Urgency: %s\n", summary.UrgencyLevel)
	fmt.Printf("Description: %s\n", summary.Description)
	fmt.Println("Key points:")
	for _, point := range summary.KeyPoints {
		fmt.Printf("  - %s\n", point)
	}
	for _, item := range summary.ActionableItems {
		fmt.Printf("Action: %s\n", item)
	}
	for _, deadline := range summary.Deadlines {
		fmt.Printf("Deadline: %s\n", deadline)
	}
	return nil
}

func runDepartment(cmd *cobra.Command, args []string) error {
	content, generator, err := loadForExtraction(args[0])
	if err != nil {
		return err
	}

	prediction := generator.PredictDepartments(cmd.Context(), content)

	fmt.Println("Predicted departments:")
	for _, dept := range prediction.PredictedDepartments {
		fmt.Printf("  - %s\n", dept)
	}
	return nil
}

func runLastDate(cmd *cobra.Command, args []string) error {
	content, generator, err := loadForExtraction(args[0])
	if err != nil {
		return err
	}

	date := generator.ExtractLastDate(cmd.Context(), content)
	if date == nil {
		fmt.Println("No actionable deadline found.")
		return nil
	}

	fmt.Println(date.Format("2006-01-02"))
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, _, err := newStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DeleteNamespace(ctx, args[0]); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	fmt.Printf("Deleted conversation %s\n", args[0])
	return nil
}

// loadForExtraction extracts a file's text and builds a generator. The
// extraction commands don't touch the vector index, so no store is needed.
func loadForExtraction(path string) (string, *genai.Generator, error) {
	content, err := extract.FromFile(path)
	if err != nil {
		return "", nil, err
	}
	if strings.TrimSpace(content) == "" {
		return "", nil, fmt.Errorf("no text could be extracted from %s", path)
	}

	client, err := embedding.NewClient()
	if err != nil {
		return "", nil, fmt.Errorf("create OpenAI client: %w", err)
	}

	return content, genai.NewGenerator(client.Client()), nil
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
