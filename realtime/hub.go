package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait bounds how long a single frame write may block.
const writeWait = 10 * time.Second

// Envelope is the wire frame for every event in both directions.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Session is one live websocket connection. The write mutex keeps frames to
// a single recipient in submission order.
type Session struct {
	ID         string
	IdentityID string
	Role       string

	conn *websocket.Conn
	mu   sync.Mutex
}

// NewSession wraps an upgraded connection.
func NewSession(id, identityID, role string, conn *websocket.Conn) *Session {
	return &Session{ID: id, IdentityID: identityID, Role: role, conn: conn}
}

// Send writes one event frame to the connection.
func (s *Session) Send(event string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(Envelope{Event: event, Data: payload})
}

// Ping sends a keepalive control frame.
func (s *Session) Ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

// Close tears the underlying connection down.
func (s *Session) Close() error {
	return s.conn.Close()
}

// Hub holds the open sessions keyed by connection ID. It is the delivery
// sink behind the notification router.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{sessions: make(map[string]*Session)}
}

// Add registers a session.
func (h *Hub) Add(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.ID] = s
}

// Remove drops a session. A no-op for unknown IDs.
func (h *Hub) Remove(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, sessionID)
}

// Get looks a session up by connection ID.
func (h *Hub) Get(sessionID string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[sessionID]
	return s, ok
}

// Len reports the number of open sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Deliver implements the notification sink over live sessions.
func (h *Hub) Deliver(connectionID, event string, payload any) error {
	s, ok := h.Get(connectionID)
	if !ok {
		return ErrNoSession
	}
	return s.Send(event, payload)
}

// ErrNoSession is returned when the connection is not (or no longer) open.
var ErrNoSession = &NoSessionError{}

// NoSessionError signals delivery to a connection the hub does not hold.
type NoSessionError struct{}

func (e *NoSessionError) Error() string { return "no live session for connection" }
