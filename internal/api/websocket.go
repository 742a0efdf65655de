package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	apperrors "github.com/Anmol-TheDev/AI-pendant/internal/errors"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadLimit    = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The chat socket is same-origin only in production; the wearable's
	// companion app connects directly.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsInbound struct {
	Content string `json:"content"`
}

type wsOutbound struct {
	Text  string `json:"text,omitempty"`
	Done  bool   `json:"done,omitempty"`
	Error string `json:"error,omitempty"`
}

// handleChatSocket upgrades the connection and streams assistant replies
// token by token. Each inbound JSON message {"content": "..."} produces a
// sequence of {"text": ...} frames terminated by {"done": true}.
func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	day, err := dayParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	uid := userID(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WarnContext(r.Context(), "WebSocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()
	conn.SetReadLimit(wsReadLimit)

	for {
		var inbound wsInbound
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.DebugContext(r.Context(), "Chat socket closed unexpectedly", "error", err)
			}
			return
		}

		events, err := s.chat.StreamReply(r.Context(), uid, day, inbound.Content)
		if err != nil {
			if writeErr := s.writeSocket(conn, wsOutbound{Error: errorMessage(err), Done: true}); writeErr != nil {
				return
			}
			continue
		}

		for event := range events {
			out := wsOutbound{Text: event.Text, Done: event.Done}
			if event.Err != nil {
				out.Error = event.Err.Error()
				out.Done = true
			}
			if err := s.writeSocket(conn, out); err != nil {
				// Drain the stream so the reply still gets persisted.
				for range events {
				}
				return
			}
		}
	}
}

func (s *Server) writeSocket(conn *websocket.Conn, out wsOutbound) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(out)
}

func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && (apperrors.IsValidation(err) || apperrors.IsNotFound(err)) {
		return appErr.Message
	}
	return "failed to generate reply"
}
