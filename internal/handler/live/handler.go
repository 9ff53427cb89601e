// Package live streams conversation turns to observers over a websocket as
// they are appended to a session.
package live

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	model "github.com/viva-ai/viva/internal/model/interview"
	interviewsvc "github.com/viva-ai/viva/internal/service/interview"
)

const writeTimeout = 10 * time.Second

// Handler upgrades observers onto a session's turn feed.
type Handler struct {
	store    *interviewsvc.Service
	upgrader websocket.Upgrader
}

// New creates the live feed handler.
func New(store *interviewsvc.Service) *Handler {
	return &Handler{
		store: store,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/interview/ws/{sessionID}", h.handleFeed)
}

type event struct {
	Type string     `json:"type"`
	Turn model.Turn `json:"turn"`
}

func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	backlog, err := h.store.Transcript(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	feed, cancel, err := h.store.Watch(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[live] upgrade failed for session=%s: %v", sessionID, err)
		return
	}
	defer conn.Close()

	// Reader goroutine only notices the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for _, turn := range backlog {
		if err := writeTurn(conn, turn); err != nil {
			return
		}
	}

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case turn, ok := <-feed:
			if !ok {
				return
			}
			if err := writeTurn(conn, turn); err != nil {
				return
			}
		}
	}
}

func writeTurn(conn *websocket.Conn, turn model.Turn) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(event{Type: "turn", Turn: turn})
}
