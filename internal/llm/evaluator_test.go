package llm

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingGenerator struct {
	prompt string
	reply  string
	err    error
}

func (r *recordingGenerator) Complete(_ context.Context, prompt string) (string, error) {
	r.prompt = prompt
	return r.reply, r.err
}

func (r *recordingGenerator) Stream(_ context.Context, prompt string) iter.Seq2[string, error] {
	r.prompt = prompt
	return func(yield func(string, error) bool) {
		if r.err != nil {
			yield("", r.err)
			return
		}
		yield(r.reply, nil)
	}
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		in    string
		want  float64
		found bool
	}{
		{"Strengths: ...\nScore: 8/10 - solid answer", 8, true},
		{"- **Score:** 7 / 10", 7, true},
		{"Score: **6**/10", 6, true},
		{"score - 4.5 out of 10", 4.5, true},
		{"SCORE: 10/10", 10, true},
		{"Score: 12/10", 10, true},
		{"I'd rate this a 7", 0, false},
		{"Score: excellent", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseScore(tt.in)
			assert.Equal(t, tt.found, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluatePrompt(t *testing.T) {
	gen := &recordingGenerator{reply: "Score: 9/10"}
	out, err := collect(NewEvaluator(gen).Evaluate(context.Background(), "What is a process?", "A running program"))
	require.NoError(t, err)
	assert.Equal(t, "Score: 9/10", out)
	assert.Contains(t, gen.prompt, "What is a process?")
	assert.Contains(t, gen.prompt, "A running program")
	assert.Contains(t, gen.prompt, "Score: N/10")
}

func TestExtract(t *testing.T) {
	gen := &recordingGenerator{reply: `{"exam_date":"2025-05-01","hours_per_day":3}`}
	x := NewExtractor(gen)
	x.now = func() time.Time { return time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC) }

	raw, err := x.Extract(context.Background(), "exam on may 1st, 3 hours a day")
	require.NoError(t, err)
	assert.Equal(t, gen.reply, raw)
	assert.Contains(t, gen.prompt, "Today is 2025-04-01.")
	assert.Contains(t, gen.prompt, "exam on may 1st")

	gen.err = errors.New("down")
	_, err = x.Extract(context.Background(), "x")
	assert.ErrorIs(t, err, gen.err)
}
