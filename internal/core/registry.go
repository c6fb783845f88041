package core

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/ProximityVoice/internal/domain"
)

var (
	ErrDuplicatePlayer = errors.New("player already has an active session")
	ErrUnknownSession  = errors.New("unknown session")
	ErrAlreadyJoined   = errors.New("session already has a connection")
)

// voiceSession is the registry-owned record for one player's voice presence.
// Mutated only under the registry lock; everything handed out is a copy.
type voiceSession struct {
	id       domain.SessionID
	playerID domain.PlayerID
	username string
	position domain.Position
	conn     SignalConnection
}

// SessionSnap is a read-only copy of a session at some instant.
type SessionSnap struct {
	ID       domain.SessionID
	PlayerID domain.PlayerID
	Username string
	Position domain.Position
	Conn     SignalConnection
}

// SessionRegistry is the single owner of VoiceSession records.
type SessionRegistry struct {
	mu        sync.RWMutex
	bySession map[domain.SessionID]*voiceSession
	byPlayer  map[domain.PlayerID]domain.SessionID
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		bySession: make(map[domain.SessionID]*voiceSession),
		byPlayer:  make(map[domain.PlayerID]domain.SessionID),
	}
}

// Register creates a session with a fresh id for the player.
func (r *SessionRegistry) Register(playerID domain.PlayerID, username string, pos domain.Position) (domain.SessionID, error) {
	if err := domain.ValidatePlayerName(username); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byPlayer[playerID]; ok {
		return "", ErrDuplicatePlayer
	}
	sid := domain.SessionID(uuid.NewString())
	r.bySession[sid] = &voiceSession{
		id:       sid,
		playerID: playerID,
		username: username,
		position: pos,
	}
	r.byPlayer[playerID] = sid
	log.Info().Str("module", "core.registry").Str("sid", string(sid)).Str("player", string(playerID)).Str("username", username).Msg("session registered")
	return sid, nil
}

// Unregister removes the player's session and returns its last snapshot.
// A no-op when the player has no session; leave ordering relative to world
// events is not guaranteed.
func (r *SessionRegistry) Unregister(playerID domain.PlayerID) (SessionSnap, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sid, ok := r.byPlayer[playerID]
	if !ok {
		return SessionSnap{}, false
	}
	s := r.bySession[sid]
	delete(r.byPlayer, playerID)
	delete(r.bySession, sid)
	log.Info().Str("module", "core.registry").Str("sid", string(sid)).Str("player", string(playerID)).Msg("session unregistered")
	return snapOf(s), true
}

// UpdatePosition overwrites the stored position. A no-op when the player left
// between the triggering snapshot and processing.
func (r *SessionRegistry) UpdatePosition(playerID domain.PlayerID, pos domain.Position) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	sid, ok := r.byPlayer[playerID]
	if !ok {
		return false
	}
	r.bySession[sid].position = pos
	return true
}

func (r *SessionRegistry) BySession(sid domain.SessionID) (SessionSnap, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.bySession[sid]
	if !ok {
		return SessionSnap{}, false
	}
	return snapOf(s), true
}

func (r *SessionRegistry) ByPlayer(playerID domain.PlayerID) (SessionSnap, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sid, ok := r.byPlayer[playerID]
	if !ok {
		return SessionSnap{}, false
	}
	return snapOf(r.bySession[sid]), true
}

// Snapshot returns a copy of every session for lock-free iteration.
func (r *SessionRegistry) Snapshot() []SessionSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SessionSnap, 0, len(r.bySession))
	for _, s := range r.bySession {
		out = append(out, snapOf(s))
	}
	return out
}

func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySession)
}

// Attach binds a connection to a pre-issued session and returns the
// username snapshotted at registration. At most one connection per session.
func (r *SessionRegistry) Attach(sid domain.SessionID, conn SignalConnection) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.bySession[sid]
	if !ok {
		return "", ErrUnknownSession
	}
	if s.conn != nil {
		return "", ErrAlreadyJoined
	}
	s.conn = conn
	log.Info().Str("module", "core.registry").Str("sid", string(sid)).Str("username", s.username).Msg("connection attached")
	return s.username, nil
}

// Detach clears the session's connection, but only if conn is still the one
// attached. Idempotent and safe against a concurrent re-attach.
func (r *SessionRegistry) Detach(sid domain.SessionID, conn SignalConnection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.bySession[sid]
	if !ok || s.conn == nil || s.conn != conn {
		return false
	}
	s.conn = nil
	log.Info().Str("module", "core.registry").Str("sid", string(sid)).Msg("connection detached")
	return true
}

// Attached reports whether the session currently has a connection.
func (r *SessionRegistry) Attached(sid domain.SessionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.bySession[sid]
	return ok && s.conn != nil
}

func snapOf(s *voiceSession) SessionSnap {
	return SessionSnap{
		ID:       s.id,
		PlayerID: s.playerID,
		Username: s.username,
		Position: s.position,
		Conn:     s.conn,
	}
}
