package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/ProximityVoice/internal/app"
	"github.com/dkeye/ProximityVoice/internal/core"
)

// VoiceWSController accepts signaling connections and walks each one through
// the Connecting -> Joined -> Closed lifecycle.
type VoiceWSController struct {
	Orch       *app.Orchestrator
	readLimit  int64
	pingPeriod time.Duration
	limiter    *SignalRateLimiter
}

func NewVoiceWSController(orch *app.Orchestrator, readLimit int64, pingPeriod time.Duration) *VoiceWSController {
	return &VoiceWSController{
		Orch:       orch,
		readLimit:  readLimit,
		pingPeriod: pingPeriod,
		limiter:    NewSignalRateLimiter(forwardLimit, forwardWindow),
	}
}

// WsVoiceConn is one live duplex channel with a client.
type WsVoiceConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsVoiceConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errConnClosed
	}
	select {
	case c.send <- f:
	default:
		return app.ErrBackpressure
	}
	return nil
}

func (c *WsVoiceConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleVoice upgrades the request and starts the connection's pumps. The
// connection stays unauthenticated until a valid join message arrives.
func (ctl *VoiceWSController) HandleVoice(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "signal").Str("remote", ws.RemoteAddr().String()).Msg("new WS connection")

	conn := &WsVoiceConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		ctl.writePump(ctx, conn)
	}()
	go ctl.readPump(ctx, conn)
}
