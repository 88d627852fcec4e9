// Package api provides the REST handlers of the unigen API.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/unigenai/unigen/internal/interview"
	"github.com/unigenai/unigen/internal/store"
)

// SessionSource exposes the caller's live interview.
type SessionSource interface {
	Snapshot(userID string) (interview.Session, bool)
}

// Ingester adds an uploaded file to the retrieval corpus.
type Ingester interface {
	IngestFile(ctx context.Context, path string) (int, error)
}

// Config wires a Handler. Sessions and Ingester may be nil, which
// disables the endpoints that need them.
type Config struct {
	Repo           store.Repository
	Sessions       SessionSource
	Ingester       Ingester
	UploadDir      string
	UploadMaxBytes int64
	IsDev          bool
	Logger         *slog.Logger
}

// Handler serves the REST endpoints.
type Handler struct {
	repo           store.Repository
	sessions       SessionSource
	ingester       Ingester
	uploadDir      string
	uploadMaxBytes int64
	isDev          bool
	logger         *slog.Logger
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.UploadMaxBytes <= 0 {
		cfg.UploadMaxBytes = 10 << 20
	}
	return &Handler{
		repo:           cfg.Repo,
		sessions:       cfg.Sessions,
		ingester:       cfg.Ingester,
		uploadDir:      cfg.UploadDir,
		uploadMaxBytes: cfg.UploadMaxBytes,
		isDev:          cfg.IsDev,
		logger:         cfg.Logger,
	}
}

// RegisterRoutes registers every REST route. Debug routes exist only in
// development mode.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/upload-pdf", h.Upload)
	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", h.Upload)
		r.Get("/session", h.Session)

		r.Post("/user/create", h.CreateUser)
		r.Get("/user/{userID}", h.GetUser)
		r.Get("/users/all", h.ListUsers)

		r.Post("/interview/save", h.SaveInterview)
		r.Get("/interview/history/{userID}", h.InterviewHistory)
		r.Get("/interview/stats/{userID}", h.InterviewStats)

		r.Post("/planner/save", h.SavePlan)
		r.Get("/planner/{userID}", h.ListPlans)
		r.Put("/planner/{planID}/update", h.UpdatePlan)

		r.Get("/chat/history/{userID}", h.ChatHistory)

		if h.isDev {
			r.Get("/debug/interviews/{userID}", h.DebugInterviews)
			r.Delete("/debug/interviews/{userID}", h.DeleteInterviews)
		}
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
