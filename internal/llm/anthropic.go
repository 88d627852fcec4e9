package llm

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 2048

// AnthropicClient generates text with the Anthropic Messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  anthropic.Model
	logger *slog.Logger
}

// NewAnthropic creates a client. Extra request options (base URL, retries)
// are passed through to the SDK.
func NewAnthropic(apiKey, model string, logger *slog.Logger, opts ...option.RequestOption) *AnthropicClient {
	if logger == nil {
		logger = slog.Default()
	}
	var clientOpts []option.RequestOption
	if apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(apiKey))
	}
	clientOpts = append(clientOpts, opts...)

	client := anthropic.NewClient(clientOpts...)
	return &AnthropicClient{
		client: &client,
		model:  anthropic.Model(model),
		logger: logger,
	}
}

// Complete returns the concatenated text blocks of one message.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.AsText().Text)
		}
	}
	if b.Len() == 0 {
		return "", errEmptyCompletion
	}
	return b.String(), nil
}

// Stream yields the completed message as a single fragment.
func (c *AnthropicClient) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		text, err := c.Complete(ctx, prompt)
		if err != nil {
			yield("", err)
			return
		}
		yield(text, nil)
	}
}
