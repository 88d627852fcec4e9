package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/unigenai/unigen/internal/domain"
	"github.com/unigenai/unigen/internal/identity"
)

// defaultMaxRequestBodySize is the default maximum allowed request body size (1MB).
const defaultMaxRequestBodySize = 1 << 20

// chatRequest is the JSON body of a chat turn. forced_role is the older
// name of pinned_agent and is still accepted.
type chatRequest struct {
	Type        string `json:"type,omitempty"`
	Message     string `json:"message"`
	PinnedAgent string `json:"pinned_agent,omitempty"`
	ForcedRole  string `json:"forced_role,omitempty"`
}

func (c chatRequest) pinned() domain.Agent {
	if c.PinnedAgent != "" {
		return domain.ParseAgent(c.PinnedAgent)
	}
	return domain.ParseAgent(c.ForcedRole)
}

// Handler serves chat turns over Server-Sent Events and WebSocket.
type Handler struct {
	service     *Service
	maxBodySize int64
	isDev       bool
	logger      *slog.Logger
}

// NewHandler creates a chat handler. maxBodySize <= 0 uses 1MB.
func NewHandler(service *Service, maxBodySize int64, isDev bool, logger *slog.Logger) *Handler {
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxRequestBodySize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, maxBodySize: maxBodySize, isDev: isDev, logger: logger}
}

// RegisterRoutes registers the chat endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.HandleChat)
	r.Post("/api/chat", h.HandleChat)
	r.Get("/ws/chat", h.HandleWebSocket)
}

// HandleChat handles POST /chat and streams the reply as SSE.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, `{"error": "user id is required"}`, http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, `{"error": "request body too large"}`, http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, `{"error": "message is required"}`, http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error": "streaming not supported"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	h.logger.Info("Chat request",
		"user_id", userID,
		"pinned_agent", req.pinned(),
		"message_length", len(req.Message),
	)

	turn := Request{UserID: userID, Message: req.Message, PinnedAgent: req.pinned()}
	for ev := range h.service.Chat(r.Context(), turn) {
		data, err := json.Marshal(ev)
		if err != nil {
			h.logger.Warn("Failed to marshal chat event", "error", err)
			return
		}
		if err := writeSSE(w, "message", string(data)); err != nil {
			h.logger.Warn("Failed to write SSE message event", "user_id", userID, "error", err)
			return
		}
		flusher.Flush()
	}

	if r.Context().Err() != nil {
		return
	}
	if err := writeSSE(w, "done", "{}"); err != nil {
		h.logger.Warn("Failed to write SSE done event", "user_id", userID, "error", err)
		return
	}
	flusher.Flush()
}

func writeSSE(w io.Writer, event, data string) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
