// Package interview owns the per-user mock-interview session state.
package interview

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/unigenai/unigen/internal/domain"
	"golang.org/x/sync/semaphore"
)

// ErrNoSession is returned when an operation needs a session the user does not have.
var ErrNoSession = errors.New("no interview session")

// passMark is the minimum grade (out of 10) that counts an answer as correct.
const passMark = 6

// Grade is the evaluation outcome of one answered question.
type Grade struct {
	Score  float64 `json:"score"`
	Graded bool    `json:"graded"`
}

// Session is one user's mock interview progress.
type Session struct {
	UserID       string                 `json:"user_id"`
	Domain       domain.InterviewDomain `json:"domain"`
	Questions    []string               `json:"questions"`
	CurrentIndex int                    `json:"current_index"`
	Active       bool                   `json:"active"`
	Grades       []Grade                `json:"grades"`
	StartedAt    time.Time              `json:"started_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// CurrentQuestion returns the question awaiting an answer.
func (s *Session) CurrentQuestion() (string, bool) {
	if !s.Active || s.CurrentIndex >= len(s.Questions) {
		return "", false
	}
	return s.Questions[s.CurrentIndex], true
}

// Summary is the score of a session over its graded answers.
type Summary struct {
	Score   float64 `json:"score"`
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
}

// Summary scores the session. Ungraded answers count toward neither
// Correct nor Total.
func (s *Session) Summary() Summary {
	var sum Summary
	var points float64
	for _, g := range s.Grades {
		if !g.Graded {
			continue
		}
		sum.Total++
		points += g.Score
		if g.Score >= passMark {
			sum.Correct++
		}
	}
	if sum.Total > 0 {
		sum.Score = math.Round(points/float64(sum.Total)*10*100) / 100
	}
	return sum
}

// Feedback returns a one-line verdict for a 0-100 score.
func Feedback(score float64) string {
	switch {
	case score >= 90:
		return "Excellent! Outstanding performance. Keep up the great work!"
	case score >= 80:
		return "Great job! You demonstrated solid knowledge. Well done!"
	case score >= 70:
		return "Good effort! You have a solid understanding. Review weaker areas."
	case score >= 60:
		return "Fair performance. Focus on strengthening key concepts."
	default:
		return "Needs improvement. Study the material more thoroughly and try again."
	}
}

type turnLock struct {
	sem  *semaphore.Weighted
	refs int
}

// Store holds at most one session per user. Every operation is atomic;
// Acquire additionally serializes whole turns for one user.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	turns    map[string]*turnLock
	now      func() time.Time
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		turns:    make(map[string]*turnLock),
		now:      time.Now,
	}
}

// Start creates or replaces the user's session and returns the first
// question. An empty question list creates nothing.
func (s *Store) Start(userID string, d domain.InterviewDomain, questions []string) (string, bool) {
	if len(questions) == 0 {
		return "", false
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = &Session{
		UserID:    userID,
		Domain:    d,
		Questions: append([]string(nil), questions...),
		Active:    true,
		StartedAt: now,
		UpdatedAt: now,
	}
	return questions[0], true
}

// IsActive reports whether the user is in the middle of an interview.
func (s *Store) IsActive(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	return ok && sess.Active
}

// CurrentQuestion returns the question the user is expected to answer.
func (s *Store) CurrentQuestion(userID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return "", false
	}
	return sess.CurrentQuestion()
}

// Advance moves to the next question. When the last question has been
// passed the session becomes inactive and Advance reports false.
func (s *Store) Advance(userID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok || !sess.Active {
		return "", false
	}
	sess.CurrentIndex++
	sess.UpdatedAt = s.now()
	if sess.CurrentIndex >= len(sess.Questions) {
		sess.Active = false
		return "", false
	}
	return sess.Questions[sess.CurrentIndex], true
}

// Grade records the evaluation of the current answer.
func (s *Store) Grade(userID string, g Grade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok || !sess.Active {
		return ErrNoSession
	}
	sess.Grades = append(sess.Grades, g)
	sess.UpdatedAt = s.now()
	return nil
}

// Snapshot returns a copy of the user's session.
func (s *Store) Snapshot(userID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return Session{}, false
	}
	cp := *sess
	cp.Questions = append([]string(nil), sess.Questions...)
	cp.Grades = append([]Grade(nil), sess.Grades...)
	return cp, true
}

// Clear removes the user's session. Clearing a missing session is a no-op.
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ExpireIdle removes sessions not touched within ttl and returns their user ids.
// Users with a turn in flight are skipped.
func (s *Store) ExpireIdle(ttl time.Duration) []string {
	cutoff := s.now().Add(-ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []string
	for userID, sess := range s.sessions {
		if _, busy := s.turns[userID]; busy {
			continue
		}
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, userID)
			expired = append(expired, userID)
		}
	}
	return expired
}

// Acquire blocks until the caller owns the user's turn, or ctx is done.
// The returned release must be called exactly once.
func (s *Store) Acquire(ctx context.Context, userID string) (func(), error) {
	s.mu.Lock()
	tl, ok := s.turns[userID]
	if !ok {
		tl = &turnLock{sem: semaphore.NewWeighted(1)}
		s.turns[userID] = tl
	}
	tl.refs++
	s.mu.Unlock()

	if err := tl.sem.Acquire(ctx, 1); err != nil {
		s.unref(userID, tl)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			tl.sem.Release(1)
			s.unref(userID, tl)
		})
	}, nil
}

func (s *Store) unref(userID string, tl *turnLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tl.refs--
	if tl.refs == 0 {
		delete(s.turns, userID)
	}
}
