// Package provider wraps the OpenAI-compatible embedding and chat
// completion services behind the port interfaces, with batching and
// bounded retries.
package provider

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"pdfqa/internal/domain"
)

const (
	completionTemperature = 0.1
	completionMaxTokens   = 1000
)

const systemPrompt = `You are a helpful assistant that answers questions based on PDF documents.
Use only the provided context to answer questions. If the answer cannot be found in the context,
say so clearly. Always reference page numbers when providing answers.`

// Options configures an OpenAI-compatible client.
type Options struct {
	APIKeyEnv      string // environment variable holding the API key
	BaseURL        string // empty = api.openai.com
	ChatModel      string
	EmbeddingModel string
	Dimension      int
	BatchSize      int
	Retry          RetryPolicy
}

// OpenAIClient implements port.Embedder and port.Completer against any
// OpenAI-compatible endpoint.
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel string
	dimension      int
	batchSize      int
	retry          RetryPolicy
}

// NewOpenAIClient creates a client from the given options. The API key
// is read from the environment variable named in Options.APIKeyEnv.
func NewOpenAIClient(opts Options) (*OpenAIClient, error) {
	apiKey := os.Getenv(opts.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", opts.APIKeyEnv)
	}

	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 || batchSize > 100 {
		batchSize = 100
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(cfg),
		chatModel:      opts.ChatModel,
		embeddingModel: opts.EmbeddingModel,
		dimension:      opts.Dimension,
		batchSize:      batchSize,
		retry:          opts.Retry,
	}, nil
}

// Embed generates embeddings for the given texts, batching requests up
// to the configured batch size. Either every text is embedded or an
// error wrapping domain.ErrExternalService is returned; no partial
// result is ever produced.
func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	allEmbeddings := make([][]float32, 0, len(texts))

	for i := 0; i < len(texts); i += c.batchSize {
		end := i + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		embeddings, err := c.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		allEmbeddings = append(allEmbeddings, embeddings...)
	}

	return allEmbeddings, nil
}

func (c *OpenAIClient) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var resp openai.EmbeddingResponse

	err := c.retry.Do(ctx, func() error {
		var err error
		resp, err = c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts,
			Model: openai.EmbeddingModel(c.embeddingModel),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embedding request failed: %w", domain.ErrExternalService, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: embedding response has %d vectors for %d inputs",
			domain.ErrExternalService, len(resp.Data), len(texts))
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(embeddings) {
			return nil, fmt.Errorf("%w: embedding response index %d out of range",
				domain.ErrExternalService, data.Index)
		}
		if len(data.Embedding) != c.dimension {
			return nil, fmt.Errorf("%w: embedding dimension %d, configured %d",
				domain.ErrExternalService, len(data.Embedding), c.dimension)
		}
		embeddings[data.Index] = data.Embedding
	}

	return embeddings, nil
}

// Dimension returns the embedding vector dimension.
func (c *OpenAIClient) Dimension() int {
	return c.dimension
}

// ModelName returns the name of the embedding model.
func (c *OpenAIClient) ModelName() string {
	return c.embeddingModel
}

// Complete answers the question from the assembled context via chat
// completion.
func (c *OpenAIClient) Complete(ctx context.Context, question, contextText string) (string, error) {
	userPrompt := fmt.Sprintf(`Context from PDF:
%s

Question: %s

Please provide a comprehensive answer based on the context above. Include relevant page numbers in your response.`,
		contextText, question)

	var resp openai.ChatCompletionResponse

	err := c.retry.Do(ctx, func() error {
		var err error
		resp, err = c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.chatModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
			Temperature: completionTemperature,
			MaxTokens:   completionMaxTokens,
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%w: completion request failed: %w", domain.ErrExternalService, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: completion response has no choices", domain.ErrExternalService)
	}

	return resp.Choices[0].Message.Content, nil
}
