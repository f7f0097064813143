// Package chatws carries the coaching conversation over a websocket.
package chatws

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Registry tracks the open connection of each user session. A session has at
// most one connection; a newer one replaces and closes the older.
type Registry struct {
	mu     sync.RWMutex
	active map[string]map[string]*websocket.Conn
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		active: make(map[string]map[string]*websocket.Conn),
	}
}

// Get returns the connection for a user session, or nil.
func (m *Registry) Get(userID, sessionID string) *websocket.Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[userID][sessionID]
}

// Register records conn for the session, closing any connection it replaces.
func (m *Registry) Register(userID, sessionID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions, ok := m.active[userID]
	if !ok {
		sessions = make(map[string]*websocket.Conn)
		m.active[userID] = sessions
	}
	if existing, ok := sessions[sessionID]; ok && existing != conn {
		go closeConn(existing, websocket.StatusNormalClosure, "session replaced")
	}
	sessions[sessionID] = conn
	slog.Info("Conversation socket registered", "user_id", userID, "session_id", sessionID)
}

// Unregister removes conn if it is still the session's connection.
func (m *Registry) Unregister(userID, sessionID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions, ok := m.active[userID]
	if !ok || sessions[sessionID] != conn {
		return
	}
	delete(sessions, sessionID)
	if len(sessions) == 0 {
		delete(m.active, userID)
	}
	slog.Info("Conversation socket unregistered", "user_id", userID, "session_id", sessionID)
}

// Len returns the number of open connections.
func (m *Registry) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, sessions := range m.active {
		n += len(sessions)
	}
	return n
}

// CloseAll starts closing every open connection. It is called on shutdown.
func (m *Registry) CloseAll(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for userID, sessions := range m.active {
		for _, conn := range sessions {
			go closeConn(conn, websocket.StatusGoingAway, reason)
		}
		delete(m.active, userID)
	}
}

// closeConn runs the close handshake, which waits for the peer.
func closeConn(conn *websocket.Conn, code websocket.StatusCode, reason string) {
	_ = conn.Close(code, reason)
}
