package track

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Node is a sample of the racing line: position, heading in radians and the
// fraction of the segment covered at this point.
type Node struct {
	P Vec2    `json:"p" yaml:"p"`
	D float64 `json:"d" yaml:"d"`
	T float64 `json:"t" yaml:"t"`
}

// Path is one checkpoint segment: its gate triangles and the racing line up to the next gate.
type Path struct {
	Nodes     []Node     `json:"nodes" yaml:"nodes"`
	Triangles []Triangle `json:"triangles" yaml:"triangles"`
	TotalDist float64    `json:"total_dist" yaml:"total_dist"`
}

func (p *Path) nearest(pos Vec2) int {
	closest := 0
	best := math.Inf(1)
	for i, n := range p.Nodes {
		if d := r2.Norm2(r2.Sub(pos.vec(), n.P.vec())); d < best {
			best = d
			closest = i
		}
	}
	return closest
}

// AngleAt returns the heading of the racing line nearest to pos, in degrees.
func (p *Path) AngleAt(pos Vec2) float64 {
	if p == nil || len(p.Nodes) == 0 {
		return 0
	}
	return p.Nodes[p.nearest(pos)].D / math.Pi * 180
}

// Progress returns how far along the segment pos is, from 0 to 1.
func (p *Path) Progress(pos Vec2) float64 {
	if p == nil || len(p.Nodes) == 0 {
		return 0
	}
	i := p.nearest(pos)
	last := p.Nodes[i]
	// Past the last node the next one is the start node at full completion.
	next := Node{P: p.Nodes[0].P, D: p.Nodes[0].D, T: 1}
	if i+1 < len(p.Nodes) {
		next = p.Nodes[i+1]
	}
	lastDist := Distance2(pos, last.P)
	nextDist := Distance2(pos, next.P)
	if lastDist+nextDist == 0 {
		return last.T
	}
	between := lastDist / (lastDist + nextDist)
	return last.T + (next.T-last.T)*between
}

// Contains reports whether a car footprint touches the checkpoint gate.
func (p *Path) Contains(pos, half Vec2) bool {
	if p == nil {
		return false
	}
	return anyIntersects(p.Triangles, pos, half)
}
