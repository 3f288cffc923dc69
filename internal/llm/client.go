package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder turns text into fixed-dimension vectors. The builder and the
// chatbot must share one implementation so query and chunk vectors live in
// the same embedding space.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// ClientConfig configures the OpenAI-backed models.
type ClientConfig struct {
	APIKey         string
	ChatModel      string
	EmbeddingModel string
}

// Client bundles the chat model and the embedder behind one connection.
type Client struct {
	config ClientConfig
	llm    *openai.LLM
}

func NewWithConfig(config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if config.ChatModel == "" {
		config.ChatModel = "gpt-4o-mini"
	}
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = "text-embedding-3-small"
	}

	llm, err := openai.New(
		openai.WithToken(config.APIKey),
		openai.WithModel(config.ChatModel),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &Client{
		config: config,
		llm:    llm,
	}, nil
}

// Chat returns the underlying chat-completion model.
func (c *Client) Chat() llms.Model {
	return c.llm
}

func (c *Client) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings, err := c.llm.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d texts", len(embeddings), len(texts))
	}
	return embeddings, nil
}
