package race

// Peer is the connection of a participant as seen by the engine. Implementations must not block.
type Peer interface {
	Send(payload []byte)
	SendUnreliable(payload []byte)
	Kick(reason string)
}

// OverlaySink receives the broadcast overlay updates for one participant.
type OverlaySink interface {
	SetLaps(laps int)
	SetMaxLaps(maxLaps int)
	SetState(s State)
	SetLapTimes(laps []string)
	SetCountdown(n int)
	SetPosition(position, count int)
	// Done is closed once the overlay connection is gone.
	Done() <-chan struct{}
	// Close may block while queued messages flush.
	Close()
}

// Participant is a connected player.
type Participant struct {
	ID        uint8
	Name      string
	Cars      []*Car
	Ready     bool
	GridSpot  int
	Finished  bool
	Incidents int

	peer    Peer
	overlay OverlaySink
	leaving bool
}

func (p *Participant) registerCar(config string) *Car {
	id := uint8(0)
	for p.car(id) != nil {
		id++
	}
	c := newCar(id, config)
	p.Cars = append(p.Cars, c)
	return c
}

func (p *Participant) car(id uint8) *Car {
	for _, c := range p.Cars {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (p *Participant) removeCar(id uint8) {
	for i, c := range p.Cars {
		if c.ID == id {
			p.Cars = append(p.Cars[:i], p.Cars[i+1:]...)
			return
		}
	}
}

func (p *Participant) firstCar() *Car {
	if len(p.Cars) == 0 {
		return nil
	}
	return p.Cars[0]
}

// bestLap is the fastest lap over every car of the participant.
func (p *Participant) bestLap() (best int64, ok bool) {
	for _, c := range p.Cars {
		if l, has := c.BestLap(); has && (!ok || l.Milliseconds() < best) {
			best, ok = l.Milliseconds(), true
		}
	}
	return best, ok
}

// progress is laps plus the fraction of the lap covered, measured by checkpoint segments.
func (p *Participant) progress(checkpoints int) float64 {
	c := p.firstCar()
	if c == nil {
		return 0
	}
	if checkpoints == 0 {
		return float64(c.Laps)
	}
	seg := activeSegment(c, checkpoints)
	return float64(c.Laps) + (float64(seg)+c.LastProgress)/float64(checkpoints)
}

// activeSegment is the checkpoint path the car is currently driving along.
func activeSegment(c *Car, checkpoints int) int {
	if c.NextCheckpoint == 0 {
		return checkpoints - 1
	}
	return c.NextCheckpoint - 1
}
