// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/unigenai/unigen/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Repository defines the interface for persisting users and their activity.
type Repository interface {
	// GetUser retrieves a user by their user ID.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// EnsureUser returns the user, creating it with username if absent.
	EnsureUser(ctx context.Context, userID, username string) (*domain.User, error)

	// CreateUser returns the user named username, creating one with a new ID if absent.
	CreateUser(ctx context.Context, username string) (*domain.User, error)

	// ListUsers returns every user, oldest first.
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// SaveInterviewResult stores a completed interview and fills in its ID and CreatedAt.
	SaveInterviewResult(ctx context.Context, r *domain.InterviewResult) error

	// InterviewHistory returns a user's results, newest first, optionally for one domain.
	InterviewHistory(ctx context.Context, userID, interviewDomain string) ([]*domain.InterviewResult, error)

	// InterviewStats aggregates a user's results.
	InterviewStats(ctx context.Context, userID string) (*domain.InterviewStats, error)

	// DeleteInterviews removes every result of a user.
	DeleteInterviews(ctx context.Context, userID string) (int64, error)

	// SaveStudyPlan stores one subject of a study plan and fills in its ID and CreatedAt.
	SaveStudyPlan(ctx context.Context, p *domain.StudyPlan) error

	// StudyPlans returns a user's plans, newest first.
	StudyPlans(ctx context.Context, userID string) ([]*domain.StudyPlan, error)

	// UpdatePlanCompletion sets a plan's completion percentage.
	UpdatePlanCompletion(ctx context.Context, planID int64, completion float64) error

	// SaveChatTurn stores one chat exchange.
	SaveChatTurn(ctx context.Context, t *domain.ChatTurn) error

	// ChatHistory returns up to limit of a user's chat turns, newest first.
	ChatHistory(ctx context.Context, userID string, limit int) ([]*domain.ChatTurn, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
