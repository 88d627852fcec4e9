package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/unigenai/unigen/internal/domain"
	"github.com/unigenai/unigen/internal/store"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
	examDateLayout      = "2006-01-02"
)

type interviewRequest struct {
	UserID  string  `json:"user_id"`
	Domain  string  `json:"domain"`
	Score   float64 `json:"score"`
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
}

type planRequest struct {
	UserID   string   `json:"user_id"`
	Subject  string   `json:"subject"`
	Topics   []string `json:"topics"`
	ExamDate string   `json:"exam_date"`
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// CreateUser handles POST /api/user/create?username=, returning the
// existing user of that name if there is one.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		Error(w, http.StatusBadRequest, "username is required")
		return
	}
	user, err := h.repo.CreateUser(r.Context(), username)
	if err != nil {
		h.logger.Error("Failed to create user", "username", username, "error", err)
		Error(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	JSON(w, http.StatusOK, user)
}

// GetUser handles GET /api/user/{userID}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.repo.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to get user", "error", err)
		Error(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	JSON(w, http.StatusOK, user)
}

// ListUsers handles GET /api/users/all.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("Failed to list users", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []*domain.User{}
	}
	JSON(w, http.StatusOK, users)
}

// SaveInterview handles POST /api/interview/save.
func (h *Handler) SaveInterview(w http.ResponseWriter, r *http.Request) {
	var req interviewRequest
	if err := decode(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch {
	case req.UserID == "" || req.Domain == "":
		Error(w, http.StatusBadRequest, "user_id and domain are required")
		return
	case req.Score < 0 || req.Score > 100:
		Error(w, http.StatusBadRequest, "score must be between 0 and 100")
		return
	case req.Total < 0 || req.Correct < 0 || req.Correct > req.Total:
		Error(w, http.StatusBadRequest, "correct must be between 0 and total")
		return
	}

	result := &domain.InterviewResult{
		UserID:  req.UserID,
		Domain:  req.Domain,
		Score:   req.Score,
		Correct: req.Correct,
		Total:   req.Total,
	}
	if err := h.repo.SaveInterviewResult(r.Context(), result); err != nil {
		h.logger.Error("Failed to save interview result", "user_id", req.UserID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to save interview result")
		return
	}
	JSON(w, http.StatusOK, result)
}

// InterviewHistory handles GET /api/interview/history/{userID}?domain=.
func (h *Handler) InterviewHistory(w http.ResponseWriter, r *http.Request) {
	results, err := h.repo.InterviewHistory(r.Context(), chi.URLParam(r, "userID"), r.URL.Query().Get("domain"))
	if err != nil {
		h.logger.Error("Failed to get interview history", "error", err)
		Error(w, http.StatusInternalServerError, "failed to get interview history")
		return
	}
	if results == nil {
		results = []*domain.InterviewResult{}
	}
	JSON(w, http.StatusOK, results)
}

// InterviewStats handles GET /api/interview/stats/{userID}.
func (h *Handler) InterviewStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.InterviewStats(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.logger.Error("Failed to get interview stats", "error", err)
		Error(w, http.StatusInternalServerError, "failed to get interview stats")
		return
	}
	JSON(w, http.StatusOK, stats)
}

// SavePlan handles POST /api/planner/save.
func (h *Handler) SavePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decode(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.Subject == "" {
		Error(w, http.StatusBadRequest, "user_id and subject are required")
		return
	}
	examDate, err := time.Parse(examDateLayout, req.ExamDate)
	if err != nil {
		Error(w, http.StatusBadRequest, "exam_date must be YYYY-MM-DD")
		return
	}

	plan := &domain.StudyPlan{
		UserID:   req.UserID,
		Subject:  req.Subject,
		Topics:   req.Topics,
		ExamDate: examDate,
	}
	if err := h.repo.SaveStudyPlan(r.Context(), plan); err != nil {
		h.logger.Error("Failed to save study plan", "user_id", req.UserID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to save study plan")
		return
	}
	JSON(w, http.StatusOK, map[string]any{"plan_id": plan.ID, "subject": plan.Subject})
}

// ListPlans handles GET /api/planner/{userID}.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.repo.StudyPlans(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.logger.Error("Failed to get study plans", "error", err)
		Error(w, http.StatusInternalServerError, "failed to get study plans")
		return
	}
	if plans == nil {
		plans = []*domain.StudyPlan{}
	}
	JSON(w, http.StatusOK, plans)
}

// UpdatePlan handles PUT /api/planner/{planID}/update?completion=.
func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	planID, err := strconv.ParseInt(chi.URLParam(r, "planID"), 10, 64)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid plan id")
		return
	}
	completion, err := strconv.ParseFloat(r.URL.Query().Get("completion"), 64)
	if err != nil || completion < 0 || completion > 100 {
		Error(w, http.StatusBadRequest, "completion must be a number between 0 and 100")
		return
	}

	err = h.repo.UpdatePlanCompletion(r.Context(), planID, completion)
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "plan not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to update study plan", "plan_id", planID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to update study plan")
		return
	}
	JSON(w, http.StatusOK, map[string]any{"plan_id": planID, "completion": completion})
}

// ChatHistory handles GET /api/chat/history/{userID}?limit=.
func (h *Handler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	turns, err := h.repo.ChatHistory(r.Context(), chi.URLParam(r, "userID"), limit)
	if err != nil {
		h.logger.Error("Failed to get chat history", "error", err)
		Error(w, http.StatusInternalServerError, "failed to get chat history")
		return
	}
	if turns == nil {
		turns = []*domain.ChatTurn{}
	}
	JSON(w, http.StatusOK, turns)
}

// DebugInterviews handles GET /api/debug/interviews/{userID}.
func (h *Handler) DebugInterviews(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	results, err := h.repo.InterviewHistory(r.Context(), userID, "")
	if err != nil {
		h.logger.Error("Failed to get interview history", "error", err)
		Error(w, http.StatusInternalServerError, "failed to get interview history")
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"user_id":          userID,
		"total_interviews": len(results),
		"interviews":       results,
	})
}

// DeleteInterviews handles DELETE /api/debug/interviews/{userID}.
func (h *Handler) DeleteInterviews(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	n, err := h.repo.DeleteInterviews(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to delete interviews", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to delete interviews")
		return
	}
	JSON(w, http.StatusOK, map[string]any{"message": "All interviews deleted", "deleted": n})
}
