package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/kompas/internal/chatbot"
)

// checkOrigin applies the CORS origin list to WebSocket handshakes.
// Requests without an Origin header come from non-browser clients and pass.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if originMatches(allowed, origin) {
			return true
		}
	}
	return false
}

// originMatches supports one "*" wildcard per pattern, as go-chi/cors does.
func originMatches(pattern, origin string) bool {
	if pattern == "*" {
		return true
	}
	prefix, suffix, wild := strings.Cut(pattern, "*")
	if !wild {
		return strings.EqualFold(pattern, origin)
	}
	origin = strings.ToLower(origin)
	prefix, suffix = strings.ToLower(prefix), strings.ToLower(suffix)
	return len(origin) >= len(prefix)+len(suffix) &&
		strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix)
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	Type    string `json:"type"` // "message" or "reset"
	Content string `json:"content"`
}

// wsResponse is the outgoing WebSocket message format.
type wsResponse struct {
	Type      string `json:"type"` // "response", "reset" or "error"
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
}

// handleWebSocket runs one Chat per "message" frame. All connections share
// the single conversation; the session id only labels frames for clients.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	sessionID := uuid.New().String()
	log := s.logger.With("session", sessionID)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read", "error", err)
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.send(conn, wsResponse{Type: "error", SessionID: sessionID, Content: "invalid message format"})
			continue
		}

		switch req.Type {
		case "message":
			reply, err := s.bot.Chat(r.Context(), req.Content)
			switch {
			case errors.Is(err, chatbot.ErrEmptyMessage):
				s.send(conn, wsResponse{Type: "error", SessionID: sessionID, Content: "content is required"})
			case err != nil:
				log.Error("websocket chat", "error", err)
				s.send(conn, wsResponse{Type: "error", SessionID: sessionID, Content: "An error occurred while processing the chat request"})
			default:
				s.send(conn, wsResponse{Type: "response", SessionID: sessionID, Content: reply})
			}
		case "reset":
			s.bot.ResetHistory()
			s.send(conn, wsResponse{Type: "reset", SessionID: sessionID, Content: "Chat history reset successfully"})
		default:
			s.send(conn, wsResponse{Type: "error", SessionID: sessionID, Content: "unknown message type: " + req.Type})
		}
	}
}

func (s *Server) send(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		s.logger.Warn("websocket write", "error", err)
	}
}
