package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/ProximityVoice/internal/domain"
)

type engineFixture struct {
	registry *SessionRegistry
	ledger   *VolumeLedger
	engine   *ProximityEngine
}

func newEngineFixture() *engineFixture {
	registry := NewSessionRegistry()
	ledger := NewVolumeLedger()
	return &engineFixture{
		registry: registry,
		ledger:   ledger,
		engine:   NewProximityEngine(registry, ledger, domain.DefaultAudibleRadius),
	}
}

func (f *engineFixture) addPlayer(t *testing.T, player domain.PlayerID, pos domain.Position, attach bool) (domain.SessionID, *fakeConn) {
	t.Helper()
	sid, err := f.registry.Register(player, string(player), pos)
	require.NoError(t, err)
	var conn *fakeConn
	if attach {
		conn = &fakeConn{}
		_, err = f.registry.Attach(sid, conn)
		require.NoError(t, err)
	}
	return sid, conn
}

func eventsFor(events []Event, to domain.SessionID) []Event {
	var out []Event
	for _, ev := range events {
		if ev.To == to {
			out = append(out, ev)
		}
	}
	return out
}

func TestCycleConnectsBothSides(t *testing.T) {
	f := newEngineFixture()
	a, _ := f.addPlayer(t, "alice", domain.Position{}, true)
	b, _ := f.addPlayer(t, "bob", domain.Position{}, true)

	events := f.engine.Cycle()
	require.Len(t, events, 2)

	initiators := 0
	for _, ev := range events {
		assert.Equal(t, EventConnect, ev.Kind)
		assert.InDelta(t, 1.0, ev.Volume, 1e-9)
		if ev.Initiate {
			initiators++
			smaller := a
			if b < a {
				smaller = b
			}
			assert.Equal(t, smaller, ev.To, "the smaller session id initiates")
		}
	}
	assert.Equal(t, 1, initiators, "exactly one side initiates")

	require.Len(t, eventsFor(events, a), 1)
	require.Len(t, eventsFor(events, b), 1)
	assert.Equal(t, b, eventsFor(events, a)[0].Peer)
	assert.Equal(t, "bob", eventsFor(events, a)[0].PeerName)
}

func TestCycleIdempotent(t *testing.T) {
	f := newEngineFixture()
	f.addPlayer(t, "alice", domain.Position{}, true)
	f.addPlayer(t, "bob", domain.Position{X: 30}, true)

	require.NotEmpty(t, f.engine.Cycle())
	assert.Empty(t, f.engine.Cycle(), "unchanged positions must emit nothing")
}

func TestCycleConnectUpdateDisconnectScenario(t *testing.T) {
	f := newEngineFixture()
	f.addPlayer(t, "alice", domain.Position{}, true)
	f.addPlayer(t, "bob", domain.Position{}, true)

	// Distance 0: connect at full volume.
	events := f.engine.Cycle()
	require.Len(t, events, 2)
	assert.Equal(t, EventConnect, events[0].Kind)
	assert.InDelta(t, 1.0, events[0].Volume, 1e-9)

	// Beyond the radius: disconnect.
	f.registry.UpdatePosition("bob", domain.Position{X: 150})
	events = f.engine.Cycle()
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, EventDisconnect, ev.Kind)
	}
	assert.Equal(t, 0, f.ledger.Len())

	// Back to distance 50: a fresh connect, not an update.
	f.registry.UpdatePosition("bob", domain.Position{X: 50})
	events = f.engine.Cycle()
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, EventConnect, ev.Kind)
		assert.InDelta(t, 0.5, ev.Volume, 1e-9)
	}

	// Small move: update with the new volume.
	f.registry.UpdatePosition("bob", domain.Position{X: 60})
	events = f.engine.Cycle()
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, EventUpdate, ev.Kind)
		assert.InDelta(t, 0.4, ev.Volume, 1e-9)
	}
}

func TestCycleSkipsUnattachedSides(t *testing.T) {
	f := newEngineFixture()
	f.addPlayer(t, "alice", domain.Position{}, true)
	f.addPlayer(t, "bob", domain.Position{X: 10}, false)

	assert.Empty(t, f.engine.Cycle())
	assert.Equal(t, 0, f.ledger.Len(), "nothing may be recorded for a pair nobody was told about")
}

func TestReconcileAttachAnnouncesInRangePeers(t *testing.T) {
	f := newEngineFixture()
	a, _ := f.addPlayer(t, "alice", domain.Position{}, true)
	b, _ := f.addPlayer(t, "bob", domain.Position{X: 20}, true)
	require.Len(t, f.engine.Cycle(), 2)

	// Carol registered earlier, connects now within range of both.
	c, _ := f.addPlayer(t, "carol", domain.Position{X: 10}, true)
	events := f.engine.ReconcileAttach(c)

	joinerEvents := eventsFor(events, c)
	require.Len(t, joinerEvents, 2, "joiner hears about both in-range peers at once")
	for _, ev := range joinerEvents {
		assert.Equal(t, EventConnect, ev.Kind)
	}
	require.Len(t, eventsFor(events, a), 1)
	require.Len(t, eventsFor(events, b), 1)
	assert.Equal(t, EventConnect, eventsFor(events, a)[0].Kind)
	assert.Equal(t, c, eventsFor(events, a)[0].Peer)
	assert.Equal(t, "carol", eventsFor(events, a)[0].PeerName)

	// Each new pair has exactly one initiator.
	for _, pair := range [][2]domain.SessionID{{a, c}, {b, c}} {
		initiators := 0
		for _, ev := range events {
			if ev.Initiate && ((ev.To == pair[0] && ev.Peer == pair[1]) || (ev.To == pair[1] && ev.Peer == pair[0])) {
				initiators++
			}
		}
		assert.Equal(t, 1, initiators)
	}
}

func TestReconcileAttachDoesNotReannounceCorrectLinks(t *testing.T) {
	f := newEngineFixture()
	a, _ := f.addPlayer(t, "alice", domain.Position{}, true)
	c, _ := f.addPlayer(t, "carol", domain.Position{X: 10}, true)

	// Alice already believes in the link at exactly the current volume.
	f.ledger.Set(domain.NewPairKey(a, c), 0.9)

	events := f.engine.ReconcileAttach(c)
	require.Len(t, eventsFor(events, c), 1, "joiner is always told")
	assert.Empty(t, eventsFor(events, a), "peer with a correct link is not told again")
}

func TestReconcileDetachCleansUp(t *testing.T) {
	f := newEngineFixture()
	a, _ := f.addPlayer(t, "alice", domain.Position{}, true)
	b, _ := f.addPlayer(t, "bob", domain.Position{X: 10}, true)
	c, _ := f.addPlayer(t, "carol", domain.Position{X: 20}, true)
	require.NotEmpty(t, f.engine.Cycle())

	events := f.engine.ReconcileDetach(a)
	require.Len(t, events, 2, "one disconnect per linked peer")
	for _, ev := range events {
		assert.Equal(t, EventDisconnect, ev.Kind)
		assert.Equal(t, a, ev.Peer)
	}
	assert.Len(t, eventsFor(events, b), 1)
	assert.Len(t, eventsFor(events, c), 1)

	assert.Equal(t, 1, f.ledger.Len(), "only the bob-carol pair survives")
	assert.Zero(t, f.ledger.Get(domain.NewPairKey(a, b)))
	assert.Zero(t, f.ledger.Get(domain.NewPairKey(a, c)))
}
