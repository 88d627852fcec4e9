package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/unigenai/unigen/internal/domain"
	"github.com/unigenai/unigen/internal/shared"
	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	retry shared.RetryPolicy
	now   func() time.Time
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL lets readers proceed while a turn is being written.
	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db, retry: shared.DefaultRetryPolicy, now: time.Now}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);

	CREATE TABLE IF NOT EXISTS interview_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		domain TEXT NOT NULL,
		score REAL NOT NULL,
		correct INTEGER NOT NULL,
		total INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_interview_results_user ON interview_results(user_id, created_at);

	CREATE TABLE IF NOT EXISTS study_plans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		subject TEXT NOT NULL,
		topics_json TEXT NOT NULL,
		exam_date TEXT NOT NULL,
		completion REAL NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_study_plans_user ON study_plans(user_id);

	CREATE TABLE IF NOT EXISTS chat_turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		agent TEXT NOT NULL,
		message TEXT NOT NULL,
		response TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_turns_user ON chat_turns(user_id, created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// exec runs a write, retrying on SQLITE_BUSY.
func (s *SQLiteStore) exec(ctx context.Context, op, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := shared.RetryOnConflict(ctx, s.retry, op, func() error {
		var err error
		res, err = s.db.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var user domain.User
	var createdAt int64
	if err := row.Scan(&user.UserID, &user.Username, &createdAt); err != nil {
		return nil, err
	}
	user.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &user, nil
}

// GetUser retrieves a user by their user ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT user_id, username, created_at FROM users WHERE user_id = ?`, userID)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}
	return user, nil
}

// EnsureUser returns the user, creating it with username if absent.
func (s *SQLiteStore) EnsureUser(ctx context.Context, userID, username string) (*domain.User, error) {
	if username == "" {
		username = userID
	}
	_, err := s.exec(ctx, "insert user",
		`INSERT INTO users (user_id, username, created_at) VALUES (?, ?, ?) ON CONFLICT(user_id) DO NOTHING`,
		userID, username, s.now().Unix())
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, userID)
}

// CreateUser returns the user named username, creating one if absent.
func (s *SQLiteStore) CreateUser(ctx context.Context, username string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, username, created_at FROM users WHERE username = ? ORDER BY created_at LIMIT 1`, username)
	user, err := scanUser(row)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scan user row: %w", err)
	}
	return s.EnsureUser(ctx, uuid.NewString(), username)
}

// ListUsers returns every user, oldest first.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, username, created_at FROM users ORDER BY created_at, user_id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer closeRows(rows, "users")

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// SaveInterviewResult stores a completed interview.
func (s *SQLiteStore) SaveInterviewResult(ctx context.Context, r *domain.InterviewResult) error {
	created := s.now()
	res, err := s.exec(ctx, "insert interview result",
		`INSERT INTO interview_results (user_id, domain, score, correct, total, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.UserID, r.Domain, r.Score, r.Correct, r.Total, created.Unix())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("get interview result id: %w", err)
	}
	r.ID = id
	r.CreatedAt = time.Unix(created.Unix(), 0).UTC()
	return nil
}

func (s *SQLiteStore) queryResults(ctx context.Context, query string, args ...any) ([]*domain.InterviewResult, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query interview results: %w", err)
	}
	defer closeRows(rows, "interview results")

	var results []*domain.InterviewResult
	for rows.Next() {
		var r domain.InterviewResult
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.UserID, &r.Domain, &r.Score, &r.Correct, &r.Total, &createdAt); err != nil {
			return nil, fmt.Errorf("scan interview result: %w", err)
		}
		r.CreatedAt = time.Unix(createdAt, 0).UTC()
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interview results: %w", err)
	}
	return results, nil
}

// InterviewHistory returns a user's results, newest first.
func (s *SQLiteStore) InterviewHistory(ctx context.Context, userID, interviewDomain string) ([]*domain.InterviewResult, error) {
	query := `SELECT id, user_id, domain, score, correct, total, created_at FROM interview_results WHERE user_id = ?`
	args := []any{userID}
	if interviewDomain != "" {
		query += ` AND domain = ?`
		args = append(args, interviewDomain)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	return s.queryResults(ctx, query, args...)
}

// InterviewStats aggregates a user's results in the order they were taken.
func (s *SQLiteStore) InterviewStats(ctx context.Context, userID string) (*domain.InterviewStats, error) {
	results, err := s.queryResults(ctx,
		`SELECT id, user_id, domain, score, correct, total, created_at FROM interview_results
		WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}

	stats := &domain.InterviewStats{ByDomain: map[string]float64{}}
	if len(results) == 0 {
		return stats, nil
	}

	var sum float64
	type acc struct {
		sum float64
		n   int
	}
	byDomain := map[string]*acc{}
	for _, r := range results {
		sum += r.Score
		a, ok := byDomain[r.Domain]
		if !ok {
			a = &acc{}
			byDomain[r.Domain] = a
		}
		a.sum += r.Score
		a.n++
	}

	stats.TotalInterviews = len(results)
	stats.AvgScore = round2(sum / float64(len(results)))
	stats.FirstScore = results[0].Score
	stats.LastScore = results[len(results)-1].Score
	stats.Improvement = round2(stats.LastScore - stats.FirstScore)
	for d, a := range byDomain {
		stats.ByDomain[d] = round2(a.sum / float64(a.n))
	}
	return stats, nil
}

// DeleteInterviews removes every result of a user.
func (s *SQLiteStore) DeleteInterviews(ctx context.Context, userID string) (int64, error) {
	res, err := s.exec(ctx, "delete interview results", `DELETE FROM interview_results WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SaveStudyPlan stores one subject of a study plan.
func (s *SQLiteStore) SaveStudyPlan(ctx context.Context, p *domain.StudyPlan) error {
	topics := p.Topics
	if topics == nil {
		topics = []string{}
	}
	topicsJSON, err := json.Marshal(topics)
	if err != nil {
		return fmt.Errorf("encode topics: %w", err)
	}

	created := s.now()
	res, err := s.exec(ctx, "insert study plan",
		`INSERT INTO study_plans (user_id, subject, topics_json, exam_date, completion, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Subject, string(topicsJSON), p.ExamDate.Format(dateLayout), p.Completion, created.Unix())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("get study plan id: %w", err)
	}
	p.ID = id
	p.CreatedAt = time.Unix(created.Unix(), 0).UTC()
	return nil
}

// StudyPlans returns a user's plans, newest first.
func (s *SQLiteStore) StudyPlans(ctx context.Context, userID string) ([]*domain.StudyPlan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, subject, topics_json, exam_date, completion, created_at FROM study_plans
		WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query study plans: %w", err)
	}
	defer closeRows(rows, "study plans")

	var plans []*domain.StudyPlan
	for rows.Next() {
		var p domain.StudyPlan
		var topicsJSON, examDate string
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.UserID, &p.Subject, &topicsJSON, &examDate, &p.Completion, &createdAt); err != nil {
			return nil, fmt.Errorf("scan study plan: %w", err)
		}
		if err := json.Unmarshal([]byte(topicsJSON), &p.Topics); err != nil {
			return nil, fmt.Errorf("decode topics of plan %d: %w", p.ID, err)
		}
		if p.ExamDate, err = time.Parse(dateLayout, examDate); err != nil {
			return nil, fmt.Errorf("parse exam date of plan %d: %w", p.ID, err)
		}
		p.CreatedAt = time.Unix(createdAt, 0).UTC()
		plans = append(plans, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate study plans: %w", err)
	}
	return plans, nil
}

// UpdatePlanCompletion sets a plan's completion percentage.
func (s *SQLiteStore) UpdatePlanCompletion(ctx context.Context, planID int64, completion float64) error {
	res, err := s.exec(ctx, "update plan completion",
		`UPDATE study_plans SET completion = ? WHERE id = ?`, completion, planID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveChatTurn stores one chat exchange.
func (s *SQLiteStore) SaveChatTurn(ctx context.Context, t *domain.ChatTurn) error {
	created := s.now()
	res, err := s.exec(ctx, "insert chat turn",
		`INSERT INTO chat_turns (user_id, agent, message, response, created_at) VALUES (?, ?, ?, ?, ?)`,
		t.UserID, t.Agent, t.Message, t.Response, created.Unix())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("get chat turn id: %w", err)
	}
	t.ID = id
	t.CreatedAt = time.Unix(created.Unix(), 0).UTC()
	return nil
}

// ChatHistory returns up to limit of a user's chat turns, newest first.
func (s *SQLiteStore) ChatHistory(ctx context.Context, userID string, limit int) ([]*domain.ChatTurn, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, agent, message, response, created_at FROM chat_turns
		WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query chat turns: %w", err)
	}
	defer closeRows(rows, "chat turns")

	var turns []*domain.ChatTurn
	for rows.Next() {
		var t domain.ChatTurn
		var createdAt int64
		if err := rows.Scan(&t.ID, &t.UserID, &t.Agent, &t.Message, &t.Response, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chat turn: %w", err)
		}
		t.CreatedAt = time.Unix(createdAt, 0).UTC()
		turns = append(turns, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat turns: %w", err)
	}
	return turns, nil
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Warn("Failed to close rows", "table", what, "error", err)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
