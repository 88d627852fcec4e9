// Package responder implements the four chat agents. Each turn is produced
// as a stream of text fragments; a consumer that stops ranging over the
// stream cancels the rest of the turn.
package responder

import (
	"context"
	"iter"
	"log/slog"
)

// Request is one chat turn handed to a responder.
type Request struct {
	UserID  string
	Message string
}

// Responder produces the reply to one turn.
type Responder interface {
	Respond(ctx context.Context, req Request) iter.Seq[string]
}

// Generator streams a completion for a prompt.
type Generator interface {
	Stream(ctx context.Context, prompt string) iter.Seq2[string, error]
}

// Evaluator critiques an interview answer.
type Evaluator interface {
	Evaluate(ctx context.Context, question, answer string) iter.Seq2[string, error]
}

// Extractor returns a best-effort JSON object describing a study-plan request.
type Extractor interface {
	Extract(ctx context.Context, text string) (string, error)
}

// Retriever returns context snippets for a query, most relevant first.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]string, error)
}

// generate streams prompt through gen. A failure ends the turn with an
// inline notice instead of an error.
func generate(ctx context.Context, gen Generator, prompt string, yield func(string) bool, logger *slog.Logger) {
	for frag, err := range gen.Stream(ctx, prompt) {
		if err != nil {
			logger.Warn("Generation failed", "error", err)
			yield("Generation failed: " + err.Error())
			return
		}
		if !yield(frag) {
			return
		}
	}
}
