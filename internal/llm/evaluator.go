package llm

import (
	"context"
	"fmt"
	"iter"
	"regexp"
	"strconv"
	"time"
)

const evaluationPrompt = `You are an expert interview evaluator for technical and behavioral interviews.
Step 1: Identify the core concepts the question requires.
Step 2: Check whether the candidate covered those concepts.
Step 3: Rate the accuracy of the answer from 1 to 10.
Step 4: Give constructive feedback.

Question:
%s

Candidate Answer:
%s

Reply with a structured evaluation:
- Strengths: what was good about the answer.
- Weaknesses: what was missing or incorrect.
- Key Points: a brief summary of the correct answer.
- Score: N/10, followed by a one-line justification.

Keep the response concise and professional.`

// Evaluator critiques interview answers.
type Evaluator struct {
	gen Generator
}

// NewEvaluator creates an evaluator backed by gen.
func NewEvaluator(gen Generator) *Evaluator {
	return &Evaluator{gen: gen}
}

// Evaluate streams a critique of answer against question.
func (e *Evaluator) Evaluate(ctx context.Context, question, answer string) iter.Seq2[string, error] {
	return e.gen.Stream(ctx, fmt.Sprintf(evaluationPrompt, question, answer))
}

var scorePattern = regexp.MustCompile(`(?i)score\W*?(\d+(?:\.\d+)?)\**\s*(?:/|out\s+of)\s*10\b`)

// ParseScore finds the "Score: N/10" line in an evaluation. Scores are
// clamped to [0, 10].
func ParseScore(evaluation string) (float64, bool) {
	m := scorePattern.FindStringSubmatch(evaluation)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return min(max(v, 0), 10), true
}

const extractionPrompt = `Extract the following details from the user's request.
Today is %s.

Return ONLY a valid JSON object with these exact keys:
- "exam_date": string in YYYY-MM-DD format or null
- "hours_per_day": number or null

Do not include any other text.

User request:
%s`

// Extractor pulls structured study-plan fields out of free text.
type Extractor struct {
	gen Generator
	now func() time.Time
}

// NewExtractor creates an extractor backed by gen.
func NewExtractor(gen Generator) *Extractor {
	return &Extractor{gen: gen, now: time.Now}
}

// Extract returns the provider's raw reply. It should be a JSON object but
// callers must tolerate anything.
func (x *Extractor) Extract(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(extractionPrompt, x.now().Format("2006-01-02"), text)
	raw, err := x.gen.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("extraction failed: %w", err)
	}
	return raw, nil
}
