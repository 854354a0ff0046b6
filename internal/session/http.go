package session

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/codecanvas/codecanvas/internal/store"
)

// Handler upgrades /ws/project/{projectId} requests into engine sessions.
type Handler struct {
	hub     *Hub
	origins []string
}

func NewHandler(hub *Hub, originPatterns []string) *Handler {
	return &Handler{hub: hub, origins: originPatterns}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.Handle("/ws/project/{projectId}", h)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	sess, err := h.hub.Open(r.Context(), projectID)
	switch {
	case errors.Is(err, ErrBusy):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "project not found", http.StatusNotFound)
		return
	case err != nil:
		slog.Error("open session", "error", err, "project", projectID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		sess.Close()
		return
	}

	clientID := uuid.New().String()
	client := NewClient(sess, conn, clientID)
	sess.Attach(client, clientID)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
