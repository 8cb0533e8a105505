package track

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"raceserver/config"
)

var unitTri = Triangle{A: Vec2{0, 0}, B: Vec2{10, 0}, C: Vec2{0, 10}}

func TestTriangle_IntersectsBox(t *testing.T) {
	tests := []struct {
		name   string
		center Vec2
		half   Vec2
		want   bool
	}{
		{"inside", Vec2{2, 2}, Vec2{1, 1}, true},
		{"overlapping corner", Vec2{-0.5, -0.5}, Vec2{1, 1}, true},
		{"far away", Vec2{50, 50}, Vec2{1, 1}, false},
		{"left of the triangle", Vec2{-3, 5}, Vec2{1, 1}, false},
		{"beyond the hypotenuse", Vec2{7, 7}, Vec2{1, 1}, false},
		{"touching the hypotenuse", Vec2{5.5, 5.5}, Vec2{0.5, 0.5}, true},
		{"box swallowing triangle", Vec2{5, 5}, Vec2{20, 20}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := unitTri.IntersectsBox(tt.center, tt.half); got != tt.want {
				t.Errorf("IntersectsBox(%v, %v) = %v, want %v", tt.center, tt.half, got, tt.want)
			}
		})
	}
}

func TestLimits_Contains(t *testing.T) {
	l := &Limits{Triangles: []Triangle{unitTri, {A: Vec2{100, 0}, B: Vec2{110, 0}, C: Vec2{100, 10}}}}
	if !l.Contains(Vec2{102, 2}, Vec2{1, 1}) {
		t.Error("point in second triangle should be contained")
	}
	if l.Contains(Vec2{50, 50}, Vec2{1, 1}) {
		t.Error("point outside both triangles should not be contained")
	}
	var none *Limits
	if none.Contains(Vec2{0, 0}, Vec2{1, 1}) {
		t.Error("nil limits contain nothing")
	}
}

func TestSpawns_Get(t *testing.T) {
	s := &Spawns{
		Extrapolate: true,
		Spawns: []Spawn{
			{Pos: [3]float64{0, 0, 1}, Rot: [4]float64{0, 0, 0, 1}},
			{Pos: [3]float64{0, -8, 1}, Rot: [4]float64{0, 0, 0, 1}},
		},
	}
	if got := s.Get(1); got != s.Spawns[1] {
		t.Errorf("Get(1) = %+v", got)
	}
	got := s.Get(3)
	if got.Pos != [3]float64{0, -24, 1} || got.Rot != [4]float64{0, 0, 0, 1} {
		t.Errorf("extrapolated Get(3) = %+v", got)
	}

	s.Extrapolate = false
	if got := s.Get(3); got != (Spawn{}) {
		t.Errorf("Get past the end without extrapolation = %+v, want zero spawn", got)
	}
	single := &Spawns{Extrapolate: true, Spawns: s.Spawns[:1]}
	if got := single.Get(2); got != (Spawn{}) {
		t.Errorf("cannot extrapolate from one spawn, got %+v", got)
	}
}

func TestSpawn_Command(t *testing.T) {
	s := Spawn{Pos: [3]float64{1.5, -2, 100.25}, Rot: [4]float64{0, 0, 0.7071, 0.7071}}
	if got, want := s.Command(), "1.5;-2;100.25#0;0;0.7071;0.7071"; got != want {
		t.Errorf("Command() = %q, want %q", got, want)
	}
}

func straightPath() *Path {
	return &Path{
		Nodes: []Node{
			{P: Vec2{0, 0}, D: 0, T: 0},
			{P: Vec2{10, 0}, D: 0, T: 0.5},
			{P: Vec2{20, 0}, D: math.Pi / 2, T: 0.9},
		},
		Triangles: []Triangle{{A: Vec2{-1, -5}, B: Vec2{1, -5}, C: Vec2{0, 5}}},
	}
}

func TestPath_Progress(t *testing.T) {
	p := straightPath()
	if got := p.Progress(Vec2{10, 0}); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Progress at node = %v, want 0.5", got)
	}
	if got := p.Progress(Vec2{12, 0}); got <= 0.5 || got >= 0.9 {
		t.Errorf("Progress between nodes = %v, want in (0.5, 0.9)", got)
	}
	// Past the last node the finish node with t = 1 is the target.
	if got := p.Progress(Vec2{20, 0}); math.Abs(got-0.9) > 1e-9 {
		t.Errorf("Progress at last node = %v, want 0.9", got)
	}
	if got := (&Path{}).Progress(Vec2{1, 1}); got != 0 {
		t.Errorf("empty path progress = %v", got)
	}
}

func TestPath_AngleAt(t *testing.T) {
	p := straightPath()
	if got := p.AngleAt(Vec2{19, 1}); math.Abs(got-90) > 1e-9 {
		t.Errorf("AngleAt = %v, want 90", got)
	}
	if !p.Contains(Vec2{0, 0}, Vec2{0.5, 0.5}) {
		t.Error("gate should contain the origin")
	}
}

func TestLoadSet(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}
	limits := write("limits.json", `{"triangles":[{"a":[0,0],"b":[10,0],"c":[0,10]}]}`)
	pit := write("pit.yaml", "extrapolate: true\nspawns:\n  - pos: [1, 2, 3]\n    rot: [0, 0, 0, 1]\n  - pos: [1, 6, 3]\n    rot: [0, 0, 0, 1]\n")
	cp := write("cp0.json", `{"nodes":[{"p":[0,0],"d":0,"t":0}],"triangles":[],"total_dist":10}`)

	set, err := LoadSet(config.Track{Limits: limits, SpawnsPit: pit, Checkpoints: []string{cp, cp}})
	if err != nil {
		t.Fatalf("LoadSet: %v", err)
	}
	if set.Limits == nil || len(set.Limits.Triangles) != 1 {
		t.Fatalf("limits not loaded: %+v", set.Limits)
	}
	if got := set.Limits.Triangles[0].B; got != (Vec2{X: 10, Y: 0}) {
		t.Errorf("triangle corner decoded as %+v", got)
	}
	if set.LimitsPit != nil || set.SpawnsOdd != nil {
		t.Error("unset descriptors should stay nil")
	}
	if got := set.SpawnsPit.Get(2).Pos; got != [3]float64{1, 10, 3} {
		t.Errorf("yaml spawns extrapolation = %v", got)
	}
	if len(set.Checkpoints) != 2 || set.Checkpoints[0].TotalDist != 10 {
		t.Errorf("checkpoints not loaded: %+v", set.Checkpoints)
	}

	gate := write("gate.yml", "nodes:\n  - p: [3, 4]\n    d: 0\n    t: 0\ntriangles:\n  - {a: [0, 0], b: [2, 0], c: [0, 2]}\n")
	set, err = LoadSet(config.Track{Checkpoints: []string{gate}})
	if err != nil {
		t.Fatalf("LoadSet yaml path: %v", err)
	}
	if got := set.Checkpoints[0].Nodes[0].P; got != (Vec2{X: 3, Y: 4}) {
		t.Errorf("yaml node decoded as %+v", got)
	}
	if !set.Checkpoints[0].Contains(Vec2{X: 0.5, Y: 0.5}, Vec2{X: 0.1, Y: 0.1}) {
		t.Error("yaml gate triangle not decoded")
	}

	bad := write("bad.json", `{"triangles": [`)
	if _, err := LoadSet(config.Track{Limits: bad}); err == nil {
		t.Error("expected a parse error")
	}
	if _, err := LoadSet(config.Track{Limits: filepath.Join(dir, "missing.json")}); err == nil {
		t.Error("expected a read error")
	}
}

func TestDistance(t *testing.T) {
	if got := Distance2(Vec2{X: 0, Y: 0}, Vec2{X: 3, Y: 4}); got != 5 {
		t.Errorf("Distance2 = %v, want 5", got)
	}
	if got := Distance3([3]float64{1, 1, 1}, [3]float64{3, 4, 7}); got != 7 {
		t.Errorf("Distance3 = %v, want 7", got)
	}
}
