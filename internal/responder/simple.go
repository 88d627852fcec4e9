package responder

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/unigenai/unigen/internal/domain"
)

// persona describes a generation-backed agent.
type persona struct {
	agent   domain.Agent
	welcome string
	prompt  string // format string taking the user's message
}

var (
	contentPersona = persona{
		agent: domain.AgentContent,
		welcome: "Hello! I'm your Content Creator\n\n" +
			"I can help you with:\n" +
			"• YouTube scripts\n" +
			"• Essays & blogs\n" +
			"• Stories & speeches\n" +
			"• Creative writing\n" +
			"• Social media content\n\n" +
			"What content would you like me to create today?",
		prompt: "You are a creative content generator. " +
			"You create YouTube scripts, essays, blogs, speeches, and social media content. " +
			"Ensure clarity, structure, and engaging tone.\n\nRequest: %s\nContent:",
	}
	codePersona = persona{
		agent: domain.AgentCode,
		welcome: "Hello! I'm your Code Assistant\n\n" +
			"I can help you with:\n" +
			"• Writing programs\n" +
			"• Debugging errors\n" +
			"• Algorithms & data structures\n" +
			"• Clean and optimized code\n\n" +
			"What would you like to code today?",
		prompt: "You are a coding assistant for students. " +
			"Explain the logic first, then provide clean and correct code. " +
			"When fixing errors, explain what was wrong.\n\nUser Code Request: %s\nAssistant:",
	}
	generalPersona = persona{
		agent: domain.AgentGeneral,
		welcome: "Hello! I'm your Campus Assistant\n\n" +
			"Ask me anything, or pick a specialist:\n" +
			"• Academic help, mock interviews and study plans\n" +
			"• Content writing\n" +
			"• Coding help\n\n" +
			"What's on your mind?",
		prompt: "You are a friendly campus assistant for university students. " +
			"Answer briefly and warmly. If the request needs a specialist, suggest the " +
			"academic, content or code assistant.\n\nUser: %s\nAssistant:",
	}
)

// Simple is a stateless agent: greeting, then feedback, then generation.
type Simple struct {
	persona persona
	gen     Generator
	logger  *slog.Logger
}

func newSimple(p persona, gen Generator, logger *slog.Logger) *Simple {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simple{persona: p, gen: gen, logger: logger.With("agent", p.agent.String())}
}

// NewContent creates the content-writing agent.
func NewContent(gen Generator, logger *slog.Logger) *Simple {
	return newSimple(contentPersona, gen, logger)
}

// NewCode creates the coding agent.
func NewCode(gen Generator, logger *slog.Logger) *Simple {
	return newSimple(codePersona, gen, logger)
}

// NewGeneral creates the small-talk agent.
func NewGeneral(gen Generator, logger *slog.Logger) *Simple {
	return newSimple(generalPersona, gen, logger)
}

// Respond implements Responder.
func (s *Simple) Respond(ctx context.Context, req Request) iter.Seq[string] {
	return func(yield func(string) bool) {
		lower := strings.ToLower(strings.TrimSpace(req.Message))
		switch {
		case isExactGreeting(lower):
			yield(s.persona.welcome)
		case isFeedback(lower):
			yield(acknowledgement)
		default:
			generate(ctx, s.gen, fmt.Sprintf(s.persona.prompt, req.Message), yield, s.logger)
		}
	}
}
