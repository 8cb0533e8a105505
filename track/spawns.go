package track

import (
	"strconv"
	"strings"
)

// Spawn is a position and rotation quaternion (x, y, z, w).
type Spawn struct {
	Pos [3]float64 `json:"pos" yaml:"pos"`
	Rot [4]float64 `json:"rot" yaml:"rot"`
}

// Command formats the spawn as the argument of a client Respawn event: "x;y;z#rx;ry;rz;rw".
func (s Spawn) Command() string {
	f := func(vals []float64) string {
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		return strings.Join(parts, ";")
	}
	return f(s.Pos[:]) + "#" + f(s.Rot[:])
}

// Spawns is an ordered list of grid or pit boxes.
type Spawns struct {
	Extrapolate bool    `json:"extrapolate" yaml:"extrapolate"`
	Spawns      []Spawn `json:"spawns" yaml:"spawns"`
}

// Get returns spawn i. Past the end of the list the first two spawns are
// extrapolated when allowed, otherwise the zero spawn is returned.
func (s *Spawns) Get(i int) Spawn {
	if s == nil || i < 0 {
		return Spawn{}
	}
	if i < len(s.Spawns) {
		return s.Spawns[i]
	}
	if s.Extrapolate && len(s.Spawns) > 1 {
		a, b := s.Spawns[0], s.Spawns[1]
		return Spawn{
			Pos: lerpPos(a.Pos, b.Pos, float64(i)),
			Rot: lerpRot(a.Rot, b.Rot, float64(i)),
		}
	}
	return Spawn{}
}
