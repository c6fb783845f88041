package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/ProximityVoice/internal/core"
	"github.com/dkeye/ProximityVoice/internal/domain"
	"github.com/dkeye/ProximityVoice/internal/protocol"
)

// connState tracks which session, if any, a connection is bound to.
// Empty sid means the connection is still Connecting.
type connState struct {
	sid domain.SessionID
}

func (s connState) joined() bool { return s.sid != "" }

func (ctl *VoiceWSController) handleSignal(state *connState, c *WsVoiceConn, data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch {
	case msg.Type == protocol.TypeJoin:
		ctl.handleJoin(state, c, msg)
	case msg.IsSignaling():
		ctl.handleForward(state, msg)
	case msg.Type == protocol.TypeLeave:
		ctl.handleLeave(state, c)
	default:
		log.Warn().Str("module", "signal").Str("type", msg.Type).Msg("unknown signal")
	}
}

func (ctl *VoiceWSController) handleJoin(state *connState, c *WsVoiceConn, msg protocol.Message) {
	if state.joined() {
		log.Warn().Str("module", "signal").Str("sid", string(state.sid)).Msg("join on already joined connection, ignored")
		return
	}
	if msg.SessionID == "" {
		ctl.sendMessage(c, protocol.Error("Missing session ID"))
		return
	}

	username, err := ctl.Orch.Join(msg.SessionID, c)
	switch err {
	case nil:
	case core.ErrUnknownSession:
		ctl.sendMessage(c, protocol.Error("No matching player for session ID"))
		return
	case core.ErrAlreadyJoined:
		ctl.sendMessage(c, protocol.Error("You're already in the voice room"))
		return
	default:
		log.Error().Err(err).Str("module", "signal").Str("sid", string(msg.SessionID)).Msg("join failed")
		ctl.sendMessage(c, protocol.Error("Join failed"))
		return
	}

	state.sid = msg.SessionID
	ctl.sendMessage(c, protocol.Joined(username))
	log.Info().Str("module", "signal").Str("sid", string(state.sid)).Str("username", username).Msg("joined")
}

func (ctl *VoiceWSController) handleForward(state *connState, msg protocol.Message) {
	if !state.joined() {
		log.Warn().Str("module", "signal").Str("type", msg.Type).Msg("signaling before join, ignored")
		return
	}
	if msg.TargetSessionID == "" {
		log.Warn().Str("module", "signal").Str("sid", string(state.sid)).Str("type", msg.Type).Msg("signaling without target, dropped")
		return
	}
	if !ctl.limiter.Allow(state.sid) {
		log.Warn().Str("module", "signal").Str("sid", string(state.sid)).Msg("signaling rate limit hit, dropped")
		return
	}
	ctl.Orch.Forward(state.sid, msg)
}

// handleLeave is a voluntary disconnect, treated like an abrupt one: the
// readPump defer runs the same detach path a transport error would.
func (ctl *VoiceWSController) handleLeave(state *connState, c *WsVoiceConn) {
	if !state.joined() {
		log.Warn().Str("module", "signal").Msg("leave before join, ignored")
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(state.sid)).Msg("leave")
	ctl.Orch.Leave(state.sid, c)
	ctl.limiter.Forget(state.sid)
	state.sid = ""
	c.Close()
}

func (ctl *VoiceWSController) sendMessage(c *WsVoiceConn, msg protocol.Message) {
	data, err := msg.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("type", msg.Type).Msg("encode")
		return
	}
	if err := c.TrySend(core.Frame(data)); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("type", msg.Type).Msg("send failed")
	}
}
