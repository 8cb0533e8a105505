package race

import (
	"time"

	"raceserver/track"
)

// wrongWayAngle is the heading difference above which a start line crossing counts as reversing.
const wrongWayAngle = 135.0

// checkLimits inspects one participant per tick.
func (e *Engine) checkLimits(now time.Time) {
	if len(e.participants) == 0 {
		return
	}
	p := e.participants[e.limitsCursor%len(e.participants)]
	for _, c := range p.Cars {
		pos := c.ground()
		if e.track.Limits != nil {
			e.trackLimits(p, c, pos, now)
		}
		if n := len(e.track.Checkpoints); n > 0 {
			c.LastProgress = e.track.Checkpoints[activeSegment(c, n)].Progress(pos)
		}
	}
}

func (e *Engine) trackLimits(p *Participant, c *Car, pos track.Vec2, now time.Time) {
	if e.track.Limits.Contains(pos, track.Vec2{X: 1, Y: 1}) {
		c.InPits = false
		if !c.OfftrackStart.IsZero() {
			log.Debugf("%s was off track for %s", p.Name, now.Sub(c.OfftrackStart))
			p.Incidents++
			c.OfftrackStart = time.Time{}
		}
		return
	}
	c.InPits = e.track.LimitsPit.Contains(pos, track.Vec2{X: 1, Y: 1})
	if !c.InPits && c.OfftrackStart.IsZero() {
		c.OfftrackStart = now
	}
}

func (e *Engine) checkCheckpoints(now time.Time) {
	n := len(e.track.Checkpoints)
	if n == 0 {
		return
	}
	for _, p := range e.participants {
		for _, c := range p.Cars {
			if c.NextCheckpoint >= n {
				c.NextCheckpoint = 0
			}
			cp := e.track.Checkpoints[c.NextCheckpoint]
			inside := cp.Contains(c.ground(), c.footprint())
			if inside && !c.IntersectsCP {
				e.crossCheckpoint(p, c, cp, n, now)
			}
			c.IntersectsCP = inside
		}
	}
}

func (e *Engine) crossCheckpoint(p *Participant, c *Car, cp *track.Path, n int, now time.Time) {
	if c.NextCheckpoint != 0 {
		c.ActiveCheckpoint = c.NextCheckpoint
		c.NextCheckpoint = (c.NextCheckpoint + 1) % n
		return
	}
	c.VelAngleToTrack = c.headingDelta(cp.AngleAt(c.ground()))
	if c.VelAngleToTrack > wrongWayAngle {
		log.Debugf("%s crossed the line the wrong way", p.Name)
		if c.Laps > 0 {
			c.Laps--
		}
		c.LapStart = time.Time{}
		c.LapsDirty = true
		return
	}
	if !c.LapStart.IsZero() {
		c.AddLapTime(now.Sub(c.LapStart))
	}
	c.LapStart = now
	c.Laps++
	c.LapsDirty = true
	c.ActiveCheckpoint = 0
	c.NextCheckpoint = 1 % n
}
