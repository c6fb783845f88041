package domain

import "math"

// DefaultAudibleRadius is the distance (in world units) at which a pair of
// players stops hearing each other.
const DefaultAudibleRadius = 100.0

// Position is a point in world space. Value type, no identity; a fresh one
// arrives with every position tick.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (p Position) Distance(other Position) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	dz := p.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// VolumeTo maps the distance to other onto [0, 1]: 1 at zero distance,
// linear falloff, 0 at or beyond radius.
func (p Position) VolumeTo(other Position, radius float64) float64 {
	v := 1.0 - p.Distance(other)/radius
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
