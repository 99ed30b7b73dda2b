package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/docqa/internal/qa"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming websocket message.
type wsRequest struct {
	Type    string `json:"type"` // "ask" or "search"
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
}

// wsResponse is the outgoing websocket message.
type wsResponse struct {
	Type     string       `json:"type"` // "response", "results" or "error"
	Content  string       `json:"content,omitempty"`
	HTML     string       `json:"html,omitempty"`
	Model    string       `json:"model,omitempty"`
	Excerpts []qa.Excerpt `json:"excerpts,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read failed", "error", err)
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.send(conn, wsResponse{Type: "error", Content: "invalid message format"})
			continue
		}
		if req.Content == "" {
			s.send(conn, wsResponse{Type: "error", Content: "content is required"})
			continue
		}

		switch req.Type {
		case "ask":
			ans, err := s.answerer.Answer(r.Context(), req.Content, req.Model)
			if err != nil {
				s.send(conn, wsResponse{Type: "error", Content: "question failed: " + err.Error()})
				continue
			}
			s.send(conn, wsResponse{
				Type:     "response",
				Content:  ans.Text,
				HTML:     ans.HTML,
				Model:    ans.Model,
				Excerpts: ans.Excerpts,
			})
		case "search":
			excerpts, err := s.answerer.Retriever().Retrieve(r.Context(), req.Content)
			if err != nil {
				s.send(conn, wsResponse{Type: "error", Content: "search failed: " + err.Error()})
				continue
			}
			s.send(conn, wsResponse{Type: "results", Excerpts: excerpts})
		default:
			s.send(conn, wsResponse{Type: "error", Content: "unknown message type: " + req.Type})
		}
	}
}

func (s *Server) send(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		s.log.Warn("websocket write failed", "error", err)
	}
}
