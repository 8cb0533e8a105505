package track

import (
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// Vec2 is a point on the ground plane. Descriptor files write it as [x, y].
type Vec2 r2.Vec

func (v Vec2) vec() r2.Vec { return r2.Vec(v) }

func (v *Vec2) UnmarshalJSON(data []byte) error {
	var xy [2]float64
	if err := json.Unmarshal(data, &xy); err != nil {
		return err
	}
	*v = Vec2{X: xy[0], Y: xy[1]}
	return nil
}

func (v *Vec2) UnmarshalYAML(node *yaml.Node) error {
	var xy [2]float64
	if err := node.Decode(&xy); err != nil {
		return err
	}
	*v = Vec2{X: xy[0], Y: xy[1]}
	return nil
}

func (v Vec2) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{v.X, v.Y})
}

// Triangle is one piece of a track area outline.
type Triangle struct {
	A Vec2 `json:"a" yaml:"a"`
	B Vec2 `json:"b" yaml:"b"`
	C Vec2 `json:"c" yaml:"c"`
}

// IntersectsBox reports whether the triangle overlaps the axis-aligned box centred on
// center with the given half extents. Touching edges count as overlapping.
func (t Triangle) IntersectsBox(center, half Vec2) bool {
	pts := [3]r2.Vec{t.A.vec(), t.B.vec(), t.C.vec()}
	axes := [5]r2.Vec{
		{X: 1},
		{Y: 1},
		edgeNormal(pts[0], pts[1]),
		edgeNormal(pts[1], pts[2]),
		edgeNormal(pts[2], pts[0]),
	}
	for _, axis := range axes {
		if axis == (r2.Vec{}) {
			continue
		}
		triMin, triMax := math.Inf(1), math.Inf(-1)
		for _, p := range pts {
			d := r2.Dot(p, axis)
			triMin = math.Min(triMin, d)
			triMax = math.Max(triMax, d)
		}
		c := r2.Dot(center.vec(), axis)
		r := math.Abs(axis.X)*half.X + math.Abs(axis.Y)*half.Y
		if c+r < triMin || c-r > triMax {
			return false
		}
	}
	return true
}

func edgeNormal(a, b r2.Vec) r2.Vec {
	e := r2.Sub(b, a)
	return r2.Vec{X: -e.Y, Y: e.X}
}

// Distance2 is the euclidean distance between two ground points.
func Distance2(a, b Vec2) float64 {
	return r2.Norm(r2.Sub(b.vec(), a.vec()))
}

// Distance3 is the euclidean distance between two points in space.
func Distance3(a, b [3]float64) float64 {
	return r3.Norm(r3.Sub(toR3(b), toR3(a)))
}

func toR3(p [3]float64) r3.Vec { return r3.Vec{X: p[0], Y: p[1], Z: p[2]} }

func fromR3(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

// Rotations are stored x, y, z, w.
func toQuat(r [4]float64) quat.Number {
	return quat.Number{Real: r[3], Imag: r[0], Jmag: r[1], Kmag: r[2]}
}

func fromQuat(q quat.Number) [4]float64 { return [4]float64{q.Imag, q.Jmag, q.Kmag, q.Real} }

// lerpPos interpolates positions; t outside [0,1] extrapolates.
func lerpPos(a, b [3]float64, t float64) [3]float64 {
	va := toR3(a)
	return fromR3(r3.Add(va, r3.Scale(t, r3.Sub(toR3(b), va))))
}

// lerpRot interpolates rotations component-wise, without renormalising.
func lerpRot(a, b [4]float64, t float64) [4]float64 {
	qa := toQuat(a)
	return fromQuat(quat.Add(qa, quat.Scale(t, quat.Sub(toQuat(b), qa))))
}

func anyIntersects(tris []Triangle, center, half Vec2) bool {
	for _, tri := range tris {
		if tri.IntersectsBox(center, half) {
			return true
		}
	}
	return false
}
