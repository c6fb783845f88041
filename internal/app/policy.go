package app

import "github.com/dkeye/ProximityVoice/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickClient
)

// Policy decides what to do with a client whose outbound queue is full.
type Policy interface {
	OnBackPressure(sid domain.SessionID) BackpressureAction
}

// KickPolicy disconnects slow clients. A client that cannot drain proximity
// events fast enough would otherwise hold a stale view of the audio graph.
type KickPolicy struct{}

func (KickPolicy) OnBackPressure(domain.SessionID) BackpressureAction {
	return KickClient
}
