// Package llm adapts text-generation providers to the gateway's
// generation, evaluation and extraction collaborators.
package llm

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"
)

// Provider names accepted by New.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

var errEmptyCompletion = errors.New("provider returned an empty completion")

// Generator produces text for a prompt, either whole or as a stream of fragments.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Stream(ctx context.Context, prompt string) iter.Seq2[string, error]
}

// Options selects and configures a provider.
type Options struct {
	Provider       string
	BaseURL        string
	APIKey         string
	Model          string
	EmbeddingModel string

	AnthropicAPIKey string
	AnthropicModel  string

	Timeout time.Duration
	Logger  *slog.Logger
}

// New builds the generator for opts.Provider wrapped in the call timeout.
// The returned OpenAI client is also what embeddings go through, so it is
// returned separately even when another provider serves generation.
func New(opts Options) (Generator, *OpenAIClient, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	oa := NewOpenAI(opts.APIKey, opts.BaseURL, opts.Model, opts.EmbeddingModel, opts.Logger)

	var gen Generator
	switch strings.ToLower(opts.Provider) {
	case "", ProviderOpenAI:
		gen = oa
	case ProviderAnthropic:
		gen = NewAnthropic(opts.AnthropicAPIKey, opts.AnthropicModel, opts.Logger)
	default:
		return nil, nil, fmt.Errorf("unknown llm provider: %s", opts.Provider)
	}
	return WithTimeout(gen, opts.Timeout), oa, nil
}

// WithTimeout bounds every call made through g. A stream's deadline covers
// the whole iteration, not just the first fragment.
func WithTimeout(g Generator, d time.Duration) Generator {
	if d <= 0 {
		return g
	}
	return &timeoutGenerator{next: g, timeout: d}
}

type timeoutGenerator struct {
	next    Generator
	timeout time.Duration
}

func (t *timeoutGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Complete(ctx, prompt)
}

func (t *timeoutGenerator) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, cancel := context.WithTimeout(ctx, t.timeout)
		defer cancel()
		for frag, err := range t.next.Stream(ctx, prompt) {
			if !yield(frag, err) {
				return
			}
		}
	}
}
