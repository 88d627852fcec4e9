// Package chat runs chat turns end to end: routing, streaming the chosen
// responder's reply, and recording the finished exchange.
package chat

import (
	"context"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/unigenai/unigen/internal/domain"
	"github.com/unigenai/unigen/internal/responder"
	"github.com/unigenai/unigen/internal/router"
)

const defaultWriteTimeout = 5 * time.Second

// Request is one chat turn.
type Request struct {
	UserID      string
	Message     string
	PinnedAgent domain.Agent
}

// Event is one element of a turn's reply stream. The first event of every
// turn carries an empty token and the agent that will answer.
type Event struct {
	Token string       `json:"token"`
	Agent domain.Agent `json:"agent"`
}

// Router picks the agent for a message.
type Router interface {
	Route(ctx context.Context, message string, pinned domain.Agent, userID string) router.Decision
}

// TurnRecorder persists finished exchanges.
type TurnRecorder interface {
	SaveChatTurn(ctx context.Context, t *domain.ChatTurn) error
}

// ServiceConfig wires a Service. Recorder may be nil.
type ServiceConfig struct {
	Router       Router
	Responders   map[domain.Agent]responder.Responder
	Recorder     TurnRecorder
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

// Service runs chat turns.
type Service struct {
	router       Router
	responders   map[domain.Agent]responder.Responder
	recorder     TurnRecorder
	writeTimeout time.Duration
	logger       *slog.Logger
}

// NewService creates a chat service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	return &Service{
		router:       cfg.Router,
		responders:   cfg.Responders,
		recorder:     cfg.Recorder,
		writeTimeout: cfg.WriteTimeout,
		logger:       cfg.Logger,
	}
}

// Chat routes req and streams the reply. Stopping the iteration cancels
// the turn; only turns streamed to the end are recorded.
func (s *Service) Chat(ctx context.Context, req Request) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		decision := s.router.Route(ctx, req.Message, req.PinnedAgent, req.UserID)
		agent := decision.Agent
		r, ok := s.responders[agent]
		if !ok {
			s.logger.Warn("No responder for agent, using general", "agent", agent)
			agent = domain.AgentGeneral
			r = s.responders[agent]
		}

		s.logger.Info("Chat turn routed",
			"user_id", req.UserID,
			"agent", agent,
			"pinned", req.PinnedAgent,
			"intent", decision.Intent,
			"reason", decision.Reason,
		)

		if !yield(Event{Agent: agent}) {
			return
		}

		var reply strings.Builder
		for token := range r.Respond(ctx, responder.Request{UserID: req.UserID, Message: req.Message}) {
			reply.WriteString(token)
			if !yield(Event{Token: token, Agent: agent}) {
				return
			}
		}
		if ctx.Err() != nil {
			return
		}

		s.record(ctx, &domain.ChatTurn{
			UserID:   req.UserID,
			Agent:    string(agent),
			Message:  req.Message,
			Response: reply.String(),
		})
	}
}

// record writes the turn on a context detached from the request, so a
// client hanging up right after the last token does not lose it.
func (s *Service) record(ctx context.Context, turn *domain.ChatTurn) {
	if s.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()
	if err := s.recorder.SaveChatTurn(ctx, turn); err != nil {
		s.logger.Warn("Failed to save chat turn", "user_id", turn.UserID, "agent", turn.Agent, "error", err)
	}
}
