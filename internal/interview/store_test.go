package interview

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unigenai/unigen/internal/domain"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStartWithEmptyQuestionsCreatesNothing(t *testing.T) {
	s := NewStore()

	q, ok := s.Start("u1", domain.DomainDSA, nil)
	assert.False(t, ok)
	assert.Empty(t, q)
	assert.False(t, s.IsActive("u1"))
	assert.Equal(t, 0, s.Len())
}

func TestAdvanceThroughThreeQuestions(t *testing.T) {
	s := NewStore()

	first, ok := s.Start("u1", domain.DomainOS, []string{"q1", "q2", "q3"})
	require.True(t, ok)
	assert.Equal(t, "q1", first)
	assert.True(t, s.IsActive("u1"))

	cur, ok := s.CurrentQuestion("u1")
	require.True(t, ok)
	assert.Equal(t, "q1", cur)

	next, ok := s.Advance("u1")
	require.True(t, ok)
	assert.Equal(t, "q2", next)
	assert.True(t, s.IsActive("u1"))

	next, ok = s.Advance("u1")
	require.True(t, ok)
	assert.Equal(t, "q3", next)
	assert.True(t, s.IsActive("u1"))

	_, ok = s.Advance("u1")
	assert.False(t, ok)
	assert.False(t, s.IsActive("u1"))

	_, ok = s.CurrentQuestion("u1")
	assert.False(t, ok)

	snap, ok := s.Snapshot("u1")
	require.True(t, ok)
	assert.Equal(t, 3, snap.CurrentIndex, "index never passes the question count")

	_, ok = s.Advance("u1")
	assert.False(t, ok)
	snap, _ = s.Snapshot("u1")
	assert.Equal(t, 3, snap.CurrentIndex)
}

func TestAdvanceWithoutSession(t *testing.T) {
	s := NewStore()
	q, ok := s.Advance("ghost")
	assert.False(t, ok)
	assert.Empty(t, q)
}

func TestClearIsIdempotent(t *testing.T) {
	s := NewStore()
	s.Start("u1", domain.DomainHR, []string{"q1"})
	s.Clear("u1")
	s.Clear("u1")
	assert.False(t, s.IsActive("u1"))
	_, ok := s.Snapshot("u1")
	assert.False(t, ok)
}

func TestStartOverwritesPreviousSession(t *testing.T) {
	s := NewStore()
	s.Start("u1", domain.DomainHR, []string{"h1", "h2"})
	s.Advance("u1")

	first, ok := s.Start("u1", domain.DomainML, []string{"m1", "m2"})
	require.True(t, ok)
	assert.Equal(t, "m1", first)

	snap, _ := s.Snapshot("u1")
	assert.Equal(t, domain.DomainML, snap.Domain)
	assert.Equal(t, 0, snap.CurrentIndex)
}

func TestSessionsAreIsolatedPerUser(t *testing.T) {
	s := NewStore()
	s.Start("a", domain.DomainDSA, []string{"a1", "a2"})
	s.Start("b", domain.DomainOS, []string{"b1", "b2"})

	s.Advance("a")
	s.Clear("b")

	cur, ok := s.CurrentQuestion("a")
	require.True(t, ok)
	assert.Equal(t, "a2", cur)
	assert.False(t, s.IsActive("b"))
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewStore()
	s.Start("u1", domain.DomainDSA, []string{"q1", "q2"})
	snap, _ := s.Snapshot("u1")
	snap.Questions[0] = "changed"

	cur, _ := s.CurrentQuestion("u1")
	assert.Equal(t, "q1", cur)
}

func TestGradeAndSummary(t *testing.T) {
	s := NewStore()
	assert.ErrorIs(t, s.Grade("u1", Grade{Score: 5, Graded: true}), ErrNoSession)

	s.Start("u1", domain.DomainDBMS, []string{"q1", "q2", "q3", "q4"})
	require.NoError(t, s.Grade("u1", Grade{Score: 8, Graded: true}))
	require.NoError(t, s.Grade("u1", Grade{Score: 4, Graded: true}))
	require.NoError(t, s.Grade("u1", Grade{}))
	require.NoError(t, s.Grade("u1", Grade{Score: 6, Graded: true}))

	snap, _ := s.Snapshot("u1")
	sum := snap.Summary()
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 2, sum.Correct)
	assert.Equal(t, 60.0, sum.Score)
}

func TestSummaryWithoutGrades(t *testing.T) {
	sess := Session{Grades: []Grade{{}, {}}}
	assert.Equal(t, Summary{}, sess.Summary())
}

func TestFeedbackBands(t *testing.T) {
	assert.Contains(t, Feedback(95), "Excellent")
	assert.Contains(t, Feedback(80), "Great job")
	assert.Contains(t, Feedback(70), "Good effort")
	assert.Contains(t, Feedback(60), "Fair")
	assert.Contains(t, Feedback(10), "Needs improvement")
}

func TestConcurrentTurnsNeverSkipAQuestion(t *testing.T) {
	s := NewStore()
	questions := make([]string, 50)
	for i := range questions {
		questions[i] = "q"
	}
	s.Start("u1", domain.DomainDSA, questions)

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[int]int)
	for i := 0; i < 49; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := s.Acquire(context.Background(), "u1")
			if err != nil {
				t.Error(err)
				return
			}
			defer release()
			snap, _ := s.Snapshot("u1")
			s.Advance("u1")
			mu.Lock()
			seen[snap.CurrentIndex]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	for i := 0; i < 49; i++ {
		assert.Equal(t, 1, seen[i], "index %d", i)
	}
	snap, _ := s.Snapshot("u1")
	assert.Equal(t, 49, snap.CurrentIndex)
	assert.True(t, snap.Active)
}

func TestAcquireHonorsContext(t *testing.T) {
	s := NewStore()
	release, err := s.Acquire(context.Background(), "u1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Acquire(ctx, "u1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Other users are never blocked by u1's turn.
	other, err := s.Acquire(context.Background(), "u2")
	require.NoError(t, err)
	other()

	release()
	release()

	again, err := s.Acquire(context.Background(), "u1")
	require.NoError(t, err)
	again()

	s.mu.Lock()
	assert.Empty(t, s.turns, "idle users hold no turn locks")
	s.mu.Unlock()
}

func TestExpireIdle(t *testing.T) {
	s := NewStore()
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Start("stale", domain.DomainDSA, []string{"q1"})
	s.Start("busy", domain.DomainDSA, []string{"q1"})
	now = now.Add(3 * time.Hour)
	s.Start("fresh", domain.DomainDSA, []string{"q1"})

	release, err := s.Acquire(context.Background(), "busy")
	require.NoError(t, err)
	defer release()

	expired := s.ExpireIdle(2 * time.Hour)
	assert.Equal(t, []string{"stale"}, expired)
	assert.False(t, s.IsActive("stale"))
	assert.True(t, s.IsActive("busy"))
	assert.True(t, s.IsActive("fresh"))
}
