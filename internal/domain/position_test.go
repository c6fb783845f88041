package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceSymmetry(t *testing.T) {
	p := Position{X: 1, Y: 2, Z: 3}
	q := Position{X: -4, Y: 0, Z: 9}
	assert.Equal(t, p.Distance(q), q.Distance(p))
}

func TestVolumeFalloff(t *testing.T) {
	origin := Position{}

	tests := []struct {
		name string
		at   Position
		want float64
	}{
		{"zero distance", Position{}, 1.0},
		{"half radius", Position{X: 50}, 0.5},
		{"at radius", Position{X: 100}, 0.0},
		{"beyond radius", Position{X: 150}, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, origin.VolumeTo(tt.at, DefaultAudibleRadius), 1e-9)
		})
	}
}

func TestVolumeSymmetry(t *testing.T) {
	p := Position{X: 10, Y: 20, Z: 30}
	q := Position{X: 40, Y: 10, Z: 5}
	assert.Equal(t, p.VolumeTo(q, DefaultAudibleRadius), q.VolumeTo(p, DefaultAudibleRadius))
}

func TestVolumeNonIncreasing(t *testing.T) {
	origin := Position{}
	prev := 1.1
	for x := 0.0; x <= 120; x += 1 {
		v := origin.VolumeTo(Position{X: x}, DefaultAudibleRadius)
		assert.LessOrEqual(t, v, prev, "volume increased at distance %f", x)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		prev = v
	}
}
