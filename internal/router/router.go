package router

import (
	"context"

	"github.com/unigenai/unigen/internal/domain"
)

// Reason explains a routing decision.
type Reason string

const (
	ReasonSessionLock Reason = "session_lock"
	ReasonFirstTurn   Reason = "first_turn"
	ReasonStay        Reason = "stay"
	ReasonAutoSwitch  Reason = "auto_switch"
)

// Decision is the outcome of Route.
type Decision struct {
	Agent  domain.Agent
	Intent domain.Intent // empty when the session lock short-circuited classification
	Reason Reason
}

// SessionChecker reports whether a user is locked into an interview.
type SessionChecker interface {
	IsActive(userID string) bool
}

// IntentClassifier labels a message.
type IntentClassifier interface {
	Classify(ctx context.Context, message string) domain.Intent
}

// Router picks the responder for each message. It never mutates state.
type Router struct {
	sessions   SessionChecker
	classifier IntentClassifier
}

// New creates a router.
func New(sessions SessionChecker, classifier IntentClassifier) *Router {
	return &Router{sessions: sessions, classifier: classifier}
}

// Route resolves the agent for message. pinned is the agent the caller
// stuck to on the previous turn, or empty on the first turn.
func (r *Router) Route(ctx context.Context, message string, pinned domain.Agent, userID string) Decision {
	// An interview in progress overrides every other signal.
	if r.sessions.IsActive(userID) {
		return Decision{Agent: domain.AgentAcademic, Reason: ReasonSessionLock}
	}

	intent := r.classifier.Classify(ctx, message)

	if pinned == "" {
		return Decision{Agent: intent.Agent(), Intent: intent, Reason: ReasonFirstTurn}
	}
	if CanHandle(pinned, intent) {
		return Decision{Agent: pinned, Intent: intent, Reason: ReasonStay}
	}
	return Decision{Agent: intent.Agent(), Intent: intent, Reason: ReasonAutoSwitch}
}
