package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/unigenai/unigen/internal/domain"
	"github.com/unigenai/unigen/internal/identity"
)

// wsFrame is a server-to-client WebSocket message.
type wsFrame struct {
	Type  string       `json:"type"`
	Token string       `json:"token,omitempty"`
	Agent domain.Agent `json:"agent,omitempty"`
	Error string       `json:"error,omitempty"`
}

// HandleWebSocket handles GET /ws/chat. Every text frame from the client
// is one chat turn; turns on a connection run one at a time. A turn
// without a pinned agent stays with the agent that answered the previous
// turn on the same connection.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, `{"error": "user id is required"}`, http.StatusBadRequest)
		return
	}

	opts := &websocket.AcceptOptions{}
	if h.isDev {
		opts.OriginPatterns = []string{"*"}
	}
	ws, err := websocket.Accept(w, r, opts)
	if err != nil {
		h.logger.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "chat ended"); closeErr != nil {
			h.logger.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()
	ws.SetReadLimit(h.maxBodySize)

	h.logger.Info("Chat WebSocket connected", "user_id", userID)
	ctx := r.Context()
	var last domain.Agent

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.logger.Debug("WebSocket closed by client", "user_id", userID)
			} else {
				h.logger.Warn("WebSocket read error", "error", err, "user_id", userID)
			}
			return
		}

		var msg chatRequest
		if err := json.Unmarshal(data, &msg); err != nil {
			if err := writeJSON(ctx, ws, wsFrame{Type: "error", Error: "invalid message"}); err != nil {
				return
			}
			continue
		}

		if msg.Type == "ping" {
			if err := writeJSON(ctx, ws, wsFrame{Type: "pong"}); err != nil {
				h.logger.Debug("Failed to send pong", "error", err)
				return
			}
			continue
		}

		if strings.TrimSpace(msg.Message) == "" {
			if err := writeJSON(ctx, ws, wsFrame{Type: "error", Error: "message is required"}); err != nil {
				return
			}
			continue
		}

		pinned := msg.pinned()
		if pinned == "" {
			pinned = last
		}
		agent, ok := h.streamTurn(ctx, ws, Request{UserID: userID, Message: msg.Message, PinnedAgent: pinned})
		if !ok {
			return
		}
		last = agent
	}
}

// streamTurn writes one turn's tokens followed by a done frame. It reports
// false when the connection can no longer be written to.
func (h *Handler) streamTurn(ctx context.Context, ws *websocket.Conn, req Request) (domain.Agent, bool) {
	var agent domain.Agent
	for ev := range h.service.Chat(ctx, req) {
		agent = ev.Agent
		if err := writeJSON(ctx, ws, wsFrame{Type: "token", Token: ev.Token, Agent: ev.Agent}); err != nil {
			h.logger.Warn("Failed to write token frame", "error", err, "user_id", req.UserID)
			return agent, false
		}
	}
	if err := writeJSON(ctx, ws, wsFrame{Type: "done", Agent: agent}); err != nil {
		h.logger.Warn("Failed to write done frame", "error", err, "user_id", req.UserID)
		return agent, false
	}
	return agent, true
}

func writeJSON(ctx context.Context, ws *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}
