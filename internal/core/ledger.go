package core

import (
	"sync"

	"github.com/dkeye/ProximityVoice/internal/domain"
)

// VolumeLedger caches the last broadcast volume per unordered session pair.
// It is the single source of truth for what every client currently believes
// the audio graph looks like. Absence means "disconnected", not "unknown".
type VolumeLedger struct {
	mu      sync.RWMutex
	volumes map[domain.PairKey]float64
}

func NewVolumeLedger() *VolumeLedger {
	return &VolumeLedger{volumes: make(map[domain.PairKey]float64)}
}

func (l *VolumeLedger) Get(pair domain.PairKey) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.volumes[pair]
}

func (l *VolumeLedger) Set(pair domain.PairKey, volume float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if volume == 0 {
		delete(l.volumes, pair)
		return
	}
	l.volumes[pair] = volume
}

func (l *VolumeLedger) Remove(pair domain.PairKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.volumes, pair)
}

// RemoveAll purges every entry referencing sid and returns the purged
// peer -> volume map. Called exactly once per session teardown, before any
// notification goes out.
func (l *VolumeLedger) RemoveAll(sid domain.SessionID) map[domain.SessionID]float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := make(map[domain.SessionID]float64)
	for pair, vol := range l.volumes {
		if pair.Has(sid) {
			removed[pair.Other(sid)] = vol
			delete(l.volumes, pair)
		}
	}
	return removed
}

func (l *VolumeLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.volumes)
}
