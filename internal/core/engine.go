package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/ProximityVoice/internal/domain"
)

// ProximityEngine keeps the VolumeLedger consistent with current positions
// and derives connect/update/disconnect events from volume deltas.
//
// All three entry points serialize on one mutex: a reconciliation triggered
// by a connection closing can never interleave with a periodic cycle, so a
// cycle that started before the close cannot resurrect a purged link.
type ProximityEngine struct {
	mu       sync.Mutex
	registry *SessionRegistry
	ledger   *VolumeLedger
	radius   float64
}

func NewProximityEngine(registry *SessionRegistry, ledger *VolumeLedger, radius float64) *ProximityEngine {
	if radius <= 0 {
		radius = domain.DefaultAudibleRadius
	}
	return &ProximityEngine{registry: registry, ledger: ledger, radius: radius}
}

// Cycle recomputes the volume for every pair of connected sessions, diffs it
// against the ledger and returns the resulting events. Pairs with a side
// that has no connection are skipped: nothing can be broadcast to them, and
// the attach reconciliation replays the pair once the side shows up.
func (e *ProximityEngine) Cycle() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := e.registry.Snapshot()
	var events []Event
	for i := range snap {
		for j := i + 1; j < len(snap); j++ {
			a, b := snap[i], snap[j]
			if a.Conn == nil || b.Conn == nil {
				log.Debug().Str("module", "core.engine").Str("a", string(a.ID)).Str("b", string(b.ID)).Msg("pair skipped, side not on voice")
				continue
			}
			// The snapshot may be stale against a concurrent detach; the
			// detach reconciliation purges after us, so re-checking here only
			// narrows the window.
			if !e.registry.Attached(a.ID) || !e.registry.Attached(b.ID) {
				continue
			}
			pair := domain.NewPairKey(a.ID, b.ID)
			newVol := a.Position.VolumeTo(b.Position, e.radius)
			oldVol := e.ledger.Get(pair)
			if newVol == oldVol {
				continue
			}
			e.ledger.Set(pair, newVol)
			events = append(events, pairEvents(a, b, oldVol, newVol)...)
		}
	}
	return events
}

// ReconcileAttach evaluates a freshly connected session against every other
// connected session without waiting for the next cycle. The joiner is told
// about every in-range peer; peers are diffed against the ledger so a link
// they already believe in is not announced twice.
func (e *ProximityEngine) ReconcileAttach(sid domain.SessionID) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	joiner, ok := e.registry.BySession(sid)
	if !ok || joiner.Conn == nil {
		log.Warn().Str("module", "core.engine").Str("sid", string(sid)).Msg("attach reconcile for absent session")
		return nil
	}

	var events []Event
	for _, other := range e.registry.Snapshot() {
		if other.ID == sid || other.Conn == nil {
			continue
		}
		pair := domain.NewPairKey(sid, other.ID)
		newVol := joiner.Position.VolumeTo(other.Position, e.radius)
		oldVol := e.ledger.Get(pair)
		e.ledger.Set(pair, newVol)

		if newVol > 0 {
			events = append(events, Event{
				Kind:     EventConnect,
				To:       sid,
				Peer:     other.ID,
				PeerName: other.Username,
				Volume:   newVol,
				Initiate: sid < other.ID,
			})
		}
		switch {
		case oldVol == 0 && newVol > 0:
			events = append(events, Event{
				Kind:     EventConnect,
				To:       other.ID,
				Peer:     sid,
				PeerName: joiner.Username,
				Volume:   newVol,
				Initiate: other.ID < sid,
			})
		case oldVol > 0 && newVol == 0:
			events = append(events, Event{Kind: EventDisconnect, To: other.ID, Peer: sid})
		case oldVol > 0 && newVol != oldVol:
			events = append(events, Event{Kind: EventUpdate, To: other.ID, Peer: sid, Volume: newVol})
		}
	}
	return events
}

// ReconcileDetach purges every ledger entry referencing sid and returns one
// disconnect per peer that still believed in a link. Purge happens before
// the events are handed back, so no later read can find the dead pair.
func (e *ProximityEngine) ReconcileDetach(sid domain.SessionID) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	removed := e.ledger.RemoveAll(sid)
	events := make([]Event, 0, len(removed))
	for peer, vol := range removed {
		if vol == 0 {
			continue
		}
		events = append(events, Event{Kind: EventDisconnect, To: peer, Peer: sid})
	}
	return events
}

// pairEvents mirrors one volume transition into an event for each side.
// Exactly one side of a fresh connect is the initiator: the one with the
// smaller session id.
func pairEvents(a, b SessionSnap, oldVol, newVol float64) []Event {
	switch {
	case oldVol == 0 && newVol > 0:
		return []Event{
			{Kind: EventConnect, To: a.ID, Peer: b.ID, PeerName: b.Username, Volume: newVol, Initiate: a.ID < b.ID},
			{Kind: EventConnect, To: b.ID, Peer: a.ID, PeerName: a.Username, Volume: newVol, Initiate: b.ID < a.ID},
		}
	case oldVol > 0 && newVol == 0:
		return []Event{
			{Kind: EventDisconnect, To: a.ID, Peer: b.ID},
			{Kind: EventDisconnect, To: b.ID, Peer: a.ID},
		}
	default:
		return []Event{
			{Kind: EventUpdate, To: a.ID, Peer: b.ID, Volume: newVol},
			{Kind: EventUpdate, To: b.ID, Peer: a.ID, Volume: newVol},
		}
	}
}
