package track

// Limits is an area of the map described by triangles, such as the racing surface or the pit lane.
type Limits struct {
	Triangles []Triangle `json:"triangles" yaml:"triangles"`
}

// Contains reports whether a car footprint at pos with half extents half touches the area.
func (l *Limits) Contains(pos, half Vec2) bool {
	if l == nil {
		return false
	}
	return anyIntersects(l.Triangles, pos, half)
}
