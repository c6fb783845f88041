package core

import "github.com/dkeye/ProximityVoice/internal/domain"

// Frame is one encoded signaling message.
type Frame []byte

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// EventKind classifies a volume transition for one side of a pair.
type EventKind int

const (
	// EventConnect tells a session to establish a link to a newly audible peer.
	EventConnect EventKind = iota
	// EventUpdate tells a session the volume of an existing link changed.
	EventUpdate
	// EventDisconnect tells a session a peer is no longer audible.
	EventDisconnect
)

func (k EventKind) String() string {
	switch k {
	case EventConnect:
		return "connect"
	case EventUpdate:
		return "update"
	case EventDisconnect:
		return "disconnect"
	}
	return "unknown"
}

// Event is one proximity notification addressed to a single session.
// The engine computes events; the orchestrator resolves the target connection
// and delivers them after every lock is released.
type Event struct {
	Kind     EventKind
	To       domain.SessionID
	Peer     domain.SessionID
	PeerName string
	Volume   float64
	Initiate bool
}
