package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/codecanvas/codecanvas/internal/typeid"
)

// Hub tracks the open session of each project. A project has at most one
// session, and a session serves one client.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*Session
	store    Store
	opts     Options
	log      *slog.Logger
	wg       sync.WaitGroup
}

func NewHub(st Store, opts Options, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		sessions: make(map[string]*Session),
		store:    st,
		opts:     opts.withDefaults(),
		log:      log,
	}
}

// Open reserves the project and loads its canvas. It fails with ErrBusy
// when the project already has a session. The caller must Attach or Close
// the returned session.
func (h *Hub) Open(ctx context.Context, projectID string) (*Session, error) {
	h.mu.Lock()
	if _, ok := h.sessions[projectID]; ok {
		h.mu.Unlock()
		return nil, ErrBusy
	}
	// Reserve before loading so a concurrent Open sees the project as busy.
	h.sessions[projectID] = nil
	h.mu.Unlock()

	c, err := h.store.LoadCanvas(ctx, projectID)
	if err != nil {
		h.mu.Lock()
		delete(h.sessions, projectID)
		h.mu.Unlock()
		return nil, fmt.Errorf("load canvas: %w", err)
	}

	s := newSession(typeid.NewSessionID(), projectID, c, h.store, h.opts, h.log)
	s.hub = h

	h.mu.Lock()
	h.sessions[projectID] = s
	h.mu.Unlock()
	return s, nil
}

// Active reports whether the project is open in a session.
func (h *Hub) Active(projectID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.sessions[projectID]
	return ok
}

// Count returns the number of open sessions.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *Hub) release(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[s.ProjectID] == s {
		delete(h.sessions, s.ProjectID)
	}
}

// Stop closes every session and waits for their final saves.
func (h *Hub) Stop() {
	h.mu.Lock()
	open := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		if s != nil {
			open = append(open, s)
		}
	}
	h.mu.Unlock()

	for _, s := range open {
		s.Close()
	}
	h.wg.Wait()
	h.log.Info("session hub stopped", "sessions", len(open))
}
