// Package display pushes visual hints to screen clients over WebSocket.
package display

import (
	"log/slog"
	"sync"

	"github.com/ashureev/datequiz/internal/domain"
	"github.com/coder/websocket"
)

// sendBuffer is how many messages may queue for a slow client before new
// ones are dropped.
const sendBuffer = 16

// Message is one frame sent to a display client.
type Message struct {
	Type   string             `json:"type"`
	Visual *domain.VisualHint `json:"visual,omitempty"`
	Reason string             `json:"reason,omitempty"`
}

// Message types.
const (
	TypeVisual = "visual"
	TypePong   = "pong"
	TypeClosed = "closed"
)

type client struct {
	conn *websocket.Conn
	send chan Message
}

// Hub tracks display connections per conversation.
type Hub struct {
	mu     sync.RWMutex
	active map[string]map[string]*client
	last   map[string]domain.VisualHint
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		active: make(map[string]map[string]*client),
		last:   make(map[string]domain.VisualHint),
	}
}

// Register adds a display connection for a conversation and returns the
// channel its writer should drain. The last hint published for the
// conversation, if any, is queued first. A client id already registered
// is replaced and its connection closed.
func (h *Hub) Register(sessionID, clientID string, conn *websocket.Conn) <-chan Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.active[sessionID]; !exists {
		h.active[sessionID] = make(map[string]*client)
	}

	if existing, exists := h.active[sessionID][clientID]; exists && existing.conn != conn {
		close(existing.send)
		if existing.conn != nil {
			_ = existing.conn.Close(websocket.StatusNormalClosure, "display replaced")
		}
	}

	c := &client{conn: conn, send: make(chan Message, sendBuffer)}
	if hint, ok := h.last[sessionID]; ok {
		c.send <- Message{Type: TypeVisual, Visual: &hint}
	}
	h.active[sessionID][clientID] = c
	slog.Info("Display registered", "session_id", sessionID, "client_id", clientID)
	return c.send
}

// Unregister removes a display connection if it is still the current one
// for the client id.
func (h *Hub) Unregister(sessionID, clientID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.active[sessionID]
	if !ok {
		return
	}
	current, exists := clients[clientID]
	if !exists || current.conn != conn {
		return
	}
	close(current.send)
	delete(clients, clientID)
	if len(clients) == 0 {
		delete(h.active, sessionID)
	}
	slog.Info("Display unregistered", "session_id", sessionID, "client_id", clientID)
}

// Publish implements skill.Publisher. It never blocks: a client whose
// queue is full misses the hint.
func (h *Hub) Publish(sessionID string, hint domain.VisualHint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last[sessionID] = hint
	for clientID, c := range h.active[sessionID] {
		v := hint
		select {
		case c.send <- Message{Type: TypeVisual, Visual: &v}:
		default:
			slog.Warn("Display queue full, dropping hint", "session_id", sessionID, "client_id", clientID)
		}
	}
}

// Connected returns how many displays are attached to a conversation.
func (h *Hub) Connected(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.active[sessionID])
}

// CloseSession closes every display of a conversation and forgets its
// last hint. It is used when a conversation is deleted or expires.
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.last, sessionID)
	clients, ok := h.active[sessionID]
	if !ok {
		return
	}
	for clientID, c := range clients {
		select {
		case c.send <- Message{Type: TypeClosed, Reason: "session closed"}:
		default:
		}
		close(c.send)
		slog.Info("Display closed", "session_id", sessionID, "client_id", clientID)
	}
	delete(h.active, sessionID)
}
