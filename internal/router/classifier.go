package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/unigenai/unigen/internal/domain"
)

// Completer is a single-shot text generation call.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type keywordRule struct {
	intent   domain.Intent
	keywords []string
}

// keywordRules are checked in order; overlaps resolve by position, not
// specificity. Bare substrings like "os" are intentionally coarse.
var keywordRules = []keywordRule{
	{domain.IntentAcademic, []string{
		"mock interview", "start interview", "practice interview",
		"study plan", "study schedule", "timetable", "exam prep", "uploaded pdf",
		"dsa", "os", "dbms", "ml", "hr",
	}},
	{domain.IntentContent, []string{
		"youtube", "script", "essay", "blog", "content",
		"caption", "speech", "article", "story", "creative",
	}},
	{domain.IntentCode, []string{
		"python", "java", "c++", "debug", "error", "bug", "run code",
	}},
}

const classifyPrompt = `You are an intent classifier for a student assistant.

Classify the user message into EXACTLY one category:
- academic: definitions, theory, exams, subject doubt solving, questions about uploaded notes.
- content: creative writing like YouTube scripts, essays, or blogs.
- code: programming, debugging, algorithms.
- general: greetings and casual talk.

STRICT RULE:
- If the request is about practicing for an interview or making a study schedule, ALWAYS choose "academic".
- Only choose "content" for purely creative or entertainment-focused writing.

Answer with the category name only.

User Message: %q
Category:`

// Classifier maps free text to an intent: keyword rules first, then one
// delegated classification call.
type Classifier struct {
	llm     Completer
	timeout time.Duration
	logger  *slog.Logger
}

// NewClassifier creates a classifier. llm may be nil, in which case
// messages without a keyword hit are classified as general.
func NewClassifier(llm Completer, timeout time.Duration, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{llm: llm, timeout: timeout, logger: logger}
}

// Classify never fails; every problem with the delegated call degrades to general.
func (c *Classifier) Classify(ctx context.Context, message string) domain.Intent {
	if intent, ok := MatchKeywords(message); ok {
		return intent
	}
	if c.llm == nil {
		return domain.IntentGeneral
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	raw, err := c.llm.Complete(ctx, fmt.Sprintf(classifyPrompt, message))
	if err != nil {
		c.logger.Warn("Intent classification failed, using general", "error", err)
		return domain.IntentGeneral
	}
	intent, ok := ParseLabel(raw)
	if !ok {
		c.logger.Debug("Unrecognized classification label, using general", "label", raw)
		return domain.IntentGeneral
	}
	return intent
}

// MatchKeywords applies the deterministic keyword tier.
func MatchKeywords(message string) (domain.Intent, bool) {
	msg := strings.ToLower(message)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(msg, kw) {
				return rule.intent, true
			}
		}
	}
	return "", false
}

// ParseLabel normalizes a model answer into an intent. It accepts an exact
// label or text that starts with one.
func ParseLabel(raw string) (domain.Intent, bool) {
	label := strings.ToLower(strings.TrimSpace(raw))
	label = strings.TrimLeft(label, "\"'`*-: ")
	if label == "" {
		return "", false
	}
	for _, intent := range domain.Intents {
		if strings.HasPrefix(label, string(intent)) {
			return intent, true
		}
	}
	return "", false
}
