package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient talks to any OpenAI-compatible endpoint (OpenAI, Ollama, vLLM).
type OpenAIClient struct {
	client         *openai.Client
	model          string
	embeddingModel string
	logger         *slog.Logger
}

// NewOpenAI creates a client. An empty baseURL uses the OpenAI API.
func NewOpenAI(apiKey, baseURL, model, embeddingModel string, logger *slog.Logger) *OpenAIClient {
	if logger == nil {
		logger = slog.Default()
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIClient{
		client:         openai.NewClientWithConfig(config),
		model:          model,
		embeddingModel: embeddingModel,
		logger:         logger,
	}
}

func (c *OpenAIClient) request(prompt string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
}

// Complete returns the whole completion for prompt.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.request(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream yields completion fragments as the server produces them.
func (c *OpenAIClient) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		req := c.request(prompt)
		req.Stream = true

		stream, err := c.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			yield("", fmt.Errorf("failed to open completion stream: %w", err))
			return
		}
		defer func() {
			if err := stream.Close(); err != nil {
				c.logger.Debug("Failed to close completion stream", "error", err)
			}
		}()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("completion stream error: %w", err))
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			frag := resp.Choices[0].Delta.Content
			if frag == "" {
				continue
			}
			if !yield(frag, nil) {
				return
			}
		}
	}
}

// Embed returns one embedding per input, in input order.
func (c *OpenAIClient) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: inputs,
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d, got %d", len(inputs), len(resp.Data))
	}
	out := make([][]float32, len(inputs))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
