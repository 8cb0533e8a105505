package race

import (
	"fmt"
	"math"
	"time"

	"raceserver/track"
)

// Car is one spawned vehicle and its lap bookkeeping.
type Car struct {
	ID     uint8
	Config string

	Pos        [3]float64
	Rot        [4]float64
	Vel        [3]float64
	RVel       [3]float64
	Tim        float64
	Ping       float64
	LastUpdate time.Time

	OfftrackStart time.Time
	InPits        bool
	IntersectsCP  bool

	HitboxHalf [3]float64

	VelAngleToTrack float64

	Laps      int
	LapsDirty bool
	LapStart  time.Time
	LapTimes  []time.Duration

	NextCheckpoint   int
	ActiveCheckpoint int
	LastProgress     float64
}

func newCar(id uint8, config string) *Car {
	return &Car{
		ID:         id,
		Config:     config,
		HitboxHalf: [3]float64{1, 1, 1},
		LapsDirty:  true,
	}
}

// maxExtrapolation bounds how far PositionAt projects a car that stopped reporting.
const maxExtrapolation = time.Second

// PositionAt extrapolates the last reported position with the last reported velocity.
func (c *Car) PositionAt(now time.Time) [3]float64 {
	if c.LastUpdate.IsZero() {
		return c.Pos
	}
	dt := min(now.Sub(c.LastUpdate), maxExtrapolation).Seconds()
	if dt <= 0 {
		return c.Pos
	}
	return [3]float64{c.Pos[0] + c.Vel[0]*dt, c.Pos[1] + c.Vel[1]*dt, c.Pos[2] + c.Vel[2]*dt}
}

func (c *Car) ground() track.Vec2 {
	return track.Vec2{X: c.Pos[0], Y: c.Pos[1]}
}

func (c *Car) footprint() track.Vec2 {
	return track.Vec2{X: c.HitboxHalf[0], Y: c.HitboxHalf[1]}
}

// AddLapTime records a completed lap.
func (c *Car) AddLapTime(d time.Duration) {
	log.Debugf("lap time: %s", FormatLapTime(d))
	c.LapTimes = append(c.LapTimes, d)
	c.LapsDirty = true
}

// BestLap returns the fastest recorded lap.
func (c *Car) BestLap() (time.Duration, bool) {
	if len(c.LapTimes) == 0 {
		return 0, false
	}
	best := c.LapTimes[0]
	for _, l := range c.LapTimes[1:] {
		if l < best {
			best = l
		}
	}
	return best, true
}

// headingDelta is the angle in degrees between the car's direction of travel and
// the racing line heading. Slow cars report 0.
func (c *Car) headingDelta(trackDeg float64) float64 {
	if math.Hypot(c.Vel[0], c.Vel[1]) < 0.5 {
		return 0
	}
	velDeg := math.Atan2(c.Vel[1], c.Vel[0]) / math.Pi * 180
	diff := math.Mod(math.Abs(velDeg-trackDeg), 360)
	if diff > 180 {
		diff = 360 - diff
	}
	return diff
}

func (c *Car) resetLaps() {
	c.Laps = 0
	c.LapTimes = nil
	c.NextCheckpoint = 0
	c.LapStart = time.Time{}
	c.OfftrackStart = time.Time{}
	c.LapsDirty = true
}

// FormatLapTime renders a lap as m:ss.mmm.
func FormatLapTime(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, (ms/1000)%60, ms%1000)
}
