package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/ProximityVoice/internal/core"
	"github.com/dkeye/ProximityVoice/internal/domain"
	"github.com/dkeye/ProximityVoice/internal/protocol"
)

// ErrBackpressure is returned by a SignalConnection whose outbound queue is
// full. Declared here so delivery and transport agree on the sentinel.
var ErrBackpressure = errors.New("backpressure")

// Orchestrator wires the registry, ledger and engine together and owns event
// delivery. The world collaborator calls the Player* methods, the signaling
// adapter calls Join/Leave/Forward, and one goroutine drives Run.
type Orchestrator struct {
	Registry *core.SessionRegistry
	Ledger   *core.VolumeLedger
	Engine   *core.ProximityEngine
	Policy   Policy
	Metrics  *Metrics

	// deliverMu keeps each engine pass and its delivery atomic, so two
	// passes cannot interleave their events for the same pair on one
	// connection. Delivery is a non-blocking enqueue, never network I/O,
	// so holding it here cannot stall on a slow peer.
	deliverMu sync.Mutex
}

// PlayerJoin registers a voice session for a player entering the world. The
// returned session id must reach the player out-of-band (invitation link).
func (o *Orchestrator) PlayerJoin(playerID domain.PlayerID, username string, pos domain.Position) (domain.SessionID, error) {
	sid, err := o.Registry.Register(playerID, username, pos)
	if err != nil {
		return "", err
	}
	if o.Metrics != nil {
		o.Metrics.ActiveSessions.Inc()
	}
	return sid, nil
}

// PlayerLeave tears the player's session down: the record is removed first,
// then peers with a live link get a disconnect and the ledger is purged.
// Unregistering before the purge closes the re-attach window: a join racing
// the leave either attaches before the record goes away (and the purge below
// still sweeps whatever its reconciliation wrote) or fails with
// ErrUnknownSession; either way no ledger entry can outlive the session.
func (o *Orchestrator) PlayerLeave(playerID domain.PlayerID) {
	snap, ok := o.Registry.Unregister(playerID)
	if !ok {
		return
	}
	if o.Metrics != nil {
		o.Metrics.ActiveSessions.Dec()
		if snap.Conn != nil {
			o.Metrics.AttachedClients.Dec()
		}
	}
	o.deliverMu.Lock()
	events := o.Engine.ReconcileDetach(snap.ID)
	o.deliver(events)
	o.deliverMu.Unlock()
	if snap.Conn != nil {
		snap.Conn.Close()
	}
}

// PositionTick overwrites the player's last known position.
func (o *Orchestrator) PositionTick(playerID domain.PlayerID, pos domain.Position) {
	o.Registry.UpdatePosition(playerID, pos)
}

// RunCycle executes one proximity pass and delivers the resulting events.
func (o *Orchestrator) RunCycle() int {
	o.deliverMu.Lock()
	defer o.deliverMu.Unlock()
	events := o.Engine.Cycle()
	o.deliver(events)
	return len(events)
}

// Run drives the periodic proximity cycle until ctx is done.
func (o *Orchestrator) Run(ctx context.Context, period time.Duration) {
	log.Info().Str("module", "app.orchestrator").Dur("period", period).Msg("proximity loop started")
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.orchestrator").Msg("proximity loop stopped")
			return
		case <-ticker.C:
			o.RunCycle()
		}
	}
}

// Join binds a connection to a pre-issued session and immediately reconciles
// it against everyone present. Returns the username for the confirmation.
func (o *Orchestrator) Join(sid domain.SessionID, conn core.SignalConnection) (string, error) {
	username, err := o.Registry.Attach(sid, conn)
	if err != nil {
		return "", err
	}
	if o.Metrics != nil {
		o.Metrics.AttachedClients.Inc()
	}
	o.deliverMu.Lock()
	events := o.Engine.ReconcileAttach(sid)
	o.deliver(events)
	o.deliverMu.Unlock()
	return username, nil
}

// Leave detaches a connection, announces the lost links and purges the
// ledger. Idempotent: voluntary leave, transport error and world leave all
// funnel here and only the first detach does work.
func (o *Orchestrator) Leave(sid domain.SessionID, conn core.SignalConnection) {
	if !o.Registry.Detach(sid, conn) {
		return
	}
	if o.Metrics != nil {
		o.Metrics.AttachedClients.Dec()
	}
	o.deliverMu.Lock()
	events := o.Engine.ReconcileDetach(sid)
	o.deliver(events)
	o.deliverMu.Unlock()
}

// Forward relays a signaling message to its target, stamping the sender's
// authenticated identity over whatever the client supplied. A target without
// a connection is a silent drop: the periodic engine reconciles eventually,
// or the sender times out at the transport layer.
func (o *Orchestrator) Forward(from domain.SessionID, msg protocol.Message) {
	sender, ok := o.Registry.BySession(from)
	if !ok {
		log.Warn().Str("module", "app.orchestrator").Str("sid", string(from)).Msg("forward from unknown session")
		return
	}
	target, ok := o.Registry.BySession(msg.TargetSessionID)
	if !ok || target.Conn == nil {
		log.Debug().Str("module", "app.orchestrator").Str("target", string(msg.TargetSessionID)).Str("type", msg.Type).Msg("forward target not connected, dropped")
		return
	}

	msg.FromSessionID = sender.ID
	msg.FromUsername = sender.Username
	o.send(target.ID, target.Conn, msg)
	if o.Metrics != nil {
		o.Metrics.ForwardedSignals.Inc()
	}
}

// deliver resolves each event's target connection through the registry and
// pushes the encoded message. Never holds a registry or ledger lock; a slow
// peer can only fill its own queue.
func (o *Orchestrator) deliver(events []core.Event) {
	for _, ev := range events {
		if o.Metrics != nil {
			o.Metrics.ProximityEvents.WithLabelValues(ev.Kind.String()).Inc()
		}
		snap, ok := o.Registry.BySession(ev.To)
		if !ok || snap.Conn == nil {
			log.Debug().Str("module", "app.orchestrator").Str("sid", string(ev.To)).Str("kind", ev.Kind.String()).Msg("event target not connected, missed")
			continue
		}
		o.send(ev.To, snap.Conn, eventMessage(ev))
	}
}

func (o *Orchestrator) send(sid domain.SessionID, conn core.SignalConnection, msg protocol.Message) {
	data, err := msg.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "app.orchestrator").Str("type", msg.Type).Msg("encode message")
		return
	}
	err = conn.TrySend(core.Frame(data))
	if err == nil {
		return
	}
	if o.Metrics != nil {
		o.Metrics.DroppedFrames.Inc()
	}
	if !errors.Is(err, ErrBackpressure) {
		return
	}
	log.Warn().Str("module", "app.orchestrator").Str("sid", string(sid)).Msg("send backpressure")
	if o.Policy == nil {
		return
	}
	switch o.Policy.OnBackPressure(sid) {
	case KickClient:
		conn.Close()
	case DropFrame, NoAction:
	}
}

func eventMessage(ev core.Event) protocol.Message {
	switch ev.Kind {
	case core.EventConnect:
		return protocol.UserJoined(ev.Peer, ev.PeerName, ev.Initiate, ev.Volume)
	case core.EventUpdate:
		return protocol.UpdateVolume(ev.Peer, ev.Volume)
	default:
		return protocol.UserLeft(ev.Peer)
	}
}
