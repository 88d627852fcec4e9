// Package domain contains core domain types for the unigen gateway.
package domain

import (
	"time"
)

// User represents a caller known to the system.
type User struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// InterviewResult is the durable record of one completed mock interview.
type InterviewResult struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Domain    string    `json:"domain"`
	Score     float64   `json:"score"`
	Correct   int       `json:"correct"`
	Total     int       `json:"total"`
	CreatedAt time.Time `json:"date"`
}

// InterviewStats aggregates a user's interview history.
type InterviewStats struct {
	TotalInterviews int                `json:"total_interviews"`
	AvgScore        float64            `json:"avg_score"`
	FirstScore      float64            `json:"first_score"`
	LastScore       float64            `json:"last_score"`
	Improvement     float64            `json:"improvement"`
	ByDomain        map[string]float64 `json:"by_domain"`
}

// StudyPlan is one persisted subject entry of a generated study plan.
type StudyPlan struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	Subject    string    `json:"subject"`
	Topics     []string  `json:"topics"`
	ExamDate   time.Time `json:"exam_date"`
	Completion float64   `json:"completion"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChatTurn is a persisted request/response pair.
type ChatTurn struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Agent     string    `json:"role"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"date"`
}
