package embedding

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go"
)

// Client wraps the OpenAI client for embedding generation.
type Client struct {
	client *openai.Client
}

// NewClient creates a new OpenAI client for embedding generation.
// It reads the OPENAI_API_KEY from the environment and returns an error if not set.
func NewClient() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	// openai-go automatically reads OPENAI_API_KEY from environment
	client := openai.NewClient()

	return &Client{client: &client}, nil
}

// Client returns the underlying OpenAI client for use in other packages
// (e.g., the structured extraction generator).
func (c *Client) Client() *openai.Client {
	return c.client
}

// EmbedBatch requests embeddings for a batch of texts in a single API call.
// A positive dimensions value is passed through as explicit output
// dimensionality.
func (c *Client) EmbedBatch(ctx context.Context, texts []string, dimensions int) ([][]float32, error) {
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model: EmbeddingModel,
	}
	if dimensions > 0 {
		params.Dimensions = openai.Int(int64(dimensions))
	}

	resp, err := c.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, err
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		embeddings[i] = toFloat32(data.Embedding)
	}
	return embeddings, nil
}

// EmbedOne requests an embedding for a single text.
func (c *Client) EmbedOne(ctx context.Context, text string, dimensions int) ([]float32, error) {
	embeddings, err := c.EmbedBatch(ctx, []string{text}, dimensions)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(embeddings))
	}
	return embeddings[0], nil
}

// toFloat32 converts []float64 to []float32.
// The API returns float64, but storage uses float32 for memory efficiency.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
