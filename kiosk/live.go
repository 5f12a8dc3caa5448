package kiosk

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// LivePath is where kiosk pages open their live-update socket.
const LivePath = "/ws"

const eventWriteTimeout = 5 * time.Second

// Event is pushed to every open page of a session.
type Event struct {
	Type string `json:"type"`
	Path string `json:"path,omitempty"`
}

// EventNavigate asks the page to load Path.
const EventNavigate = "navigate"

// Hub tracks the live sockets of each session.
type Hub struct {
	mu    sync.Mutex
	conns map[string]map[*websocket.Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*websocket.Conn]struct{})}
}

func (h *Hub) add(sessionID string, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[sessionID]
	if !ok {
		set = make(map[*websocket.Conn]struct{})
		h.conns[sessionID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) remove(sessionID string, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.conns[sessionID]
	delete(set, c)
	if len(set) == 0 {
		delete(h.conns, sessionID)
	}
}

// Count returns the number of sockets open for a session.
func (h *Hub) Count(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[sessionID])
}

// Publish sends ev to every socket of the session. Sessions without sockets drop it.
func (h *Hub) Publish(ctx context.Context, sessionID string, ev Event) {
	h.mu.Lock()
	targets := make([]*websocket.Conn, 0, len(h.conns[sessionID]))
	for c := range h.conns[sessionID] {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		wctx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
		if err := wsjson.Write(wctx, c, ev); err != nil {
			log.Printf("kiosk: live update failed: %v", err)
		}
		cancel()
	}
}

// handleLive upgrades the request and keeps the socket registered until the page goes away.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	h, err := s.sessions.Load(r)
	if err != nil {
		log.Printf("kiosk: live session load failed: %v", err)
		http.Error(w, "Session store unavailable", http.StatusServiceUnavailable)
		return
	}

	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Printf("kiosk: failed to accept websocket: %v", err)
		return
	}
	defer c.Close(websocket.StatusNormalClosure, "")

	s.hub.add(h.ID, c)
	defer s.hub.remove(h.ID, c)

	// Pages never send anything; CloseRead ends the context when they leave.
	ctx := c.CloseRead(r.Context())
	<-ctx.Done()
}
