package router

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/unigenai/unigen/internal/domain"
)

type fakeCompleter struct {
	reply string
	err   error
	calls int
	delay time.Duration
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func TestKeywordTierPriority(t *testing.T) {
	tests := []struct {
		msg  string
		want domain.Intent
	}{
		{"write python code", domain.IntentCode},
		{"Start a MOCK INTERVIEW", domain.IntentAcademic},
		{"write a youtube script", domain.IntentContent},
		// Academic beats content: "study plan" and "blog" both match.
		{"blog post about my study plan", domain.IntentAcademic},
		// Content beats code.
		{"essay about python", domain.IntentContent},
		// Bare substrings are matched on purpose: "close" contains "os".
		{"close the python file", domain.IntentAcademic},
		{"fix this bug", domain.IntentCode},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			got, ok := MatchKeywords(tt.msg)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeywordHitSkipsDelegatedCall(t *testing.T) {
	llm := &fakeCompleter{reply: "content"}
	c := NewClassifier(llm, time.Second, nil)

	assert.Equal(t, domain.IntentCode, c.Classify(context.Background(), "debug my java"))
	assert.Equal(t, 0, llm.calls)
}

func TestDelegatedTierNormalization(t *testing.T) {
	tests := []struct {
		reply string
		want  domain.Intent
	}{
		{"academic", domain.IntentAcademic},
		{"  Content\n", domain.IntentContent},
		{"code - this is programming", domain.IntentCode},
		{"\"academic\"", domain.IntentAcademic},
		{"general", domain.IntentGeneral},
		{"", domain.IntentGeneral},
		{"I think it is about cooking", domain.IntentGeneral},
		{"poetry", domain.IntentGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			llm := &fakeCompleter{reply: tt.reply}
			c := NewClassifier(llm, time.Second, nil)
			assert.Equal(t, tt.want, c.Classify(context.Background(), "tell me something nice"))
			assert.Equal(t, 1, llm.calls)
		})
	}
}

func TestDelegatedFailuresDegradeToGeneral(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		c := NewClassifier(&fakeCompleter{err: errors.New("connection refused")}, time.Second, nil)
		assert.Equal(t, domain.IntentGeneral, c.Classify(context.Background(), "what's up"))
	})
	t.Run("timeout", func(t *testing.T) {
		c := NewClassifier(&fakeCompleter{reply: "academic", delay: time.Second}, 10*time.Millisecond, nil)
		assert.Equal(t, domain.IntentGeneral, c.Classify(context.Background(), "what's up"))
	})
	t.Run("no collaborator", func(t *testing.T) {
		c := NewClassifier(nil, time.Second, nil)
		assert.Equal(t, domain.IntentGeneral, c.Classify(context.Background(), "what's up"))
	})
}

func TestPromptCarriesMessage(t *testing.T) {
	var got string
	c := NewClassifier(completerFunc(func(_ context.Context, p string) (string, error) {
		got = p
		return "general", nil
	}), 0, nil)
	c.Classify(context.Background(), "good weekend?")
	assert.True(t, strings.Contains(got, `"good weekend?"`))
}

type completerFunc func(ctx context.Context, prompt string) (string, error)

func (f completerFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
