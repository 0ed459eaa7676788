package services

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Conn is the subset of *websocket.Conn the presence registry and the
// fan-out need, kept small so tests can substitute a fake connection.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Presence maps a user ID to at most one live connection. It is
// process-wide state owned by the hub, constructed at startup and
// injected where needed; the map never outlives the process.
type Presence struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

// NewPresence creates an empty presence registry
func NewPresence() *Presence {
	return &Presence{conns: make(map[string]Conn)}
}

// Register records the connection for a user. A previous connection of
// the same user is closed and replaced (last connection wins).
func (p *Presence) Register(userID string, conn Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.conns[userID]; ok {
		existing.Close()
	}
	p.conns[userID] = conn

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes the connection for a user. Passing the connection
// being torn down guards against a reconnect race: if the registry
// already holds a newer connection for the user, nothing is removed.
// A nil conn removes unconditionally. Unregistering an absent user is
// a no-op.
func (p *Presence) Unregister(userID string, conn Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, ok := p.conns[userID]
	if !ok {
		return
	}
	if conn != nil && current != conn {
		return
	}
	current.Close()
	delete(p.conns, userID)

	log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
}

// Resolve returns the live connection for a user, if any
func (p *Presence) Resolve(userID string) (Conn, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	conn, ok := p.conns[userID]
	return conn, ok
}

// IsOnline reports whether a user has a live connection
func (p *Presence) IsOnline(userID string) bool {
	_, ok := p.Resolve(userID)
	return ok
}

// OnlineUserIDs returns the IDs of every connected user
func (p *Presence) OnlineUserIDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.conns))
	for id := range p.conns {
		ids = append(ids, id)
	}
	return ids
}

// snapshot copies the current registry so broadcasts iterate without
// holding the lock across connection writes
func (p *Presence) snapshot() map[string]Conn {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]Conn, len(p.conns))
	for id, conn := range p.conns {
		out[id] = conn
	}
	return out
}
