package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairKeyOrderIndependent(t *testing.T) {
	a, b := SessionID("aaa"), SessionID("bbb")
	assert.Equal(t, NewPairKey(a, b), NewPairKey(b, a))

	m := map[PairKey]float64{NewPairKey(a, b): 0.5}
	assert.Equal(t, 0.5, m[NewPairKey(b, a)])
}

func TestPairKeyOther(t *testing.T) {
	pair := NewPairKey("bbb", "aaa")
	assert.Equal(t, SessionID("bbb"), pair.Other("aaa"))
	assert.Equal(t, SessionID("aaa"), pair.Other("bbb"))
	assert.True(t, pair.Has("aaa"))
	assert.True(t, pair.Has("bbb"))
	assert.False(t, pair.Has("ccc"))
}
