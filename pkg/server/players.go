package server

import (
	"sync"
	"time"

	"github.com/decred/slog"
)

// PlayerState tracks whether a named player currently owns a live socket.
type PlayerState int

const (
	// StateAttached means the player has a live connection.
	StateAttached PlayerState = iota
	// StateDetached means the connection dropped; the name stays reserved
	// until the reconnection window expires.
	StateDetached
)

// String returns the state name.
func (s PlayerState) String() string {
	if s == StateAttached {
		return "attached"
	}
	return "detached"
}

// AttachResult reports the outcome of claiming a name.
type AttachResult int

const (
	// AttachOK means the name was free and is now bound to the socket.
	AttachOK AttachResult = iota
	// AttachNameTaken means a record already exists, attached or detached.
	// Detached names are reclaimed through Reattach, never Attach.
	AttachNameTaken
)

// playerRecord is the registry's view of one named player.
type playerRecord struct {
	name        string
	state       PlayerState
	sock        *socket
	roomID      string
	detachStart time.Time
}

// PlayerRegistry maps player names to their connection state and room.
// A single mutex serializes record mutations; a secondary mutex guards the
// ping table so heartbeat storms do not contend with attach traffic.
type PlayerRegistry struct {
	mu      sync.Mutex
	players map[string]*playerRecord
	bySock  map[*socket]string

	pingMu   sync.Mutex
	lastPing map[string]time.Time

	log slog.Logger
}

// NewPlayerRegistry creates an empty registry.
func NewPlayerRegistry(log slog.Logger) *PlayerRegistry {
	return &PlayerRegistry{
		players:  make(map[string]*playerRecord),
		bySock:   make(map[*socket]string),
		lastPing: make(map[string]time.Time),
		log:      log,
	}
}

// Attach claims name for sock and stamps its first ping. Any existing
// record blocks the claim.
func (r *PlayerRegistry) Attach(name string, sock *socket) AttachResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.players[name]; exists {
		return AttachNameTaken
	}
	r.players[name] = &playerRecord{name: name, state: StateAttached, sock: sock}
	r.bySock[sock] = name

	r.pingMu.Lock()
	r.lastPing[name] = time.Now()
	r.pingMu.Unlock()

	r.log.Debugf("player %s attached (session %s)", name, sock.id)
	return AttachOK
}

// Reattach rebinds a detached name to a fresh socket and returns the room
// the player was seated in, "" when roomless. It fails for unknown names
// and names still attached elsewhere.
func (r *PlayerRegistry) Reattach(name string, sock *socket) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.players[name]
	if !ok || rec.state != StateDetached {
		return "", false
	}
	rec.state = StateAttached
	rec.sock = sock
	rec.detachStart = time.Time{}
	r.bySock[sock] = name

	r.pingMu.Lock()
	r.lastPing[name] = time.Now()
	r.pingMu.Unlock()

	r.log.Infof("player %s reattached (session %s)", name, sock.id)
	return rec.roomID, true
}

// Detach marks name disconnected but keeps its record and room seat for
// the reconnection window. Idempotent on already detached names.
func (r *PlayerRegistry) Detach(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.players[name]
	if !ok || rec.state == StateDetached {
		return
	}
	delete(r.bySock, rec.sock)
	rec.sock = nil
	rec.state = StateDetached
	rec.detachStart = time.Now()
	r.log.Debugf("player %s detached", name)
}

// Remove erases the record entirely, freeing the name for reuse.
func (r *PlayerRegistry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.players[name]
	if !ok {
		return
	}
	if rec.sock != nil {
		delete(r.bySock, rec.sock)
	}
	delete(r.players, name)

	r.pingMu.Lock()
	delete(r.lastPing, name)
	r.pingMu.Unlock()

	r.log.Debugf("player %s removed", name)
}

// BySocket resolves a socket to its player name, "" when unclaimed.
func (r *PlayerRegistry) BySocket(sock *socket) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bySock[sock]
}

// SocketOf returns the live socket of an attached player. Detached and
// unknown names return ok = false; their frames are dropped silently.
func (r *PlayerRegistry) SocketOf(name string) (*socket, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.players[name]
	if !ok || rec.state != StateAttached || rec.sock == nil {
		return nil, false
	}
	return rec.sock, true
}

// SetRoom records the room a player sits in.
func (r *PlayerRegistry) SetRoom(name, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.players[name]; ok {
		rec.roomID = roomID
	}
}

// ClearRoom removes the player's room association.
func (r *PlayerRegistry) ClearRoom(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.players[name]; ok {
		rec.roomID = ""
	}
}

// RoomOf returns the player's room id, "" when roomless or unknown.
func (r *PlayerRegistry) RoomOf(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.players[name]; ok {
		return rec.roomID
	}
	return ""
}

// UpdatePing stamps a heartbeat. Unknown names are a no-op; entries exist
// exactly while a record does, so only the ping mutex is needed here.
func (r *PlayerRegistry) UpdatePing(name string) {
	r.pingMu.Lock()
	if _, ok := r.lastPing[name]; ok {
		r.lastPing[name] = time.Now()
	}
	r.pingMu.Unlock()
}

// ScanTimedOut returns the attached names whose last heartbeat is older
// than timeout.
func (r *PlayerRegistry) ScanTimedOut(timeout time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pingMu.Lock()
	defer r.pingMu.Unlock()

	now := time.Now()
	var names []string
	for name, rec := range r.players {
		if rec.state != StateAttached {
			continue
		}
		if now.Sub(r.lastPing[name]) > timeout {
			names = append(names, name)
		}
	}
	return names
}

// ScanExpiredDetached returns the detached names whose reconnection window
// has passed.
func (r *PlayerRegistry) ScanExpiredDetached(threshold time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var names []string
	for name, rec := range r.players {
		if rec.state != StateDetached {
			continue
		}
		if now.Sub(rec.detachStart) > threshold {
			names = append(names, name)
		}
	}
	return names
}

// Counts returns how many players are attached and detached.
func (r *PlayerRegistry) Counts() (attached, detached int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.players {
		if rec.state == StateAttached {
			attached++
		} else {
			detached++
		}
	}
	return attached, detached
}
