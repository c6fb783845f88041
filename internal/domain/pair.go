package domain

// SessionID identifies a voice session. Issued once at registration, never
// reused.
type SessionID string

// PairKey is an unordered pair of session ids, canonicalized so that
// NewPairKey(a, b) == NewPairKey(b, a) and it can be used directly as a map
// key.
type PairKey struct {
	A SessionID
	B SessionID
}

func NewPairKey(a, b SessionID) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// Other returns the pair member that is not sid.
func (p PairKey) Other(sid SessionID) SessionID {
	if p.A == sid {
		return p.B
	}
	return p.A
}

// Has reports whether sid is a member of the pair.
func (p PairKey) Has(sid SessionID) bool {
	return p.A == sid || p.B == sid
}
