package race

import (
	"context"
	"time"
)

// Standing is one line of a qualifying grid or a finishing order.
type Standing struct {
	Position  int
	Name      string
	BestLap   time.Duration
	HasLap    bool
	Laps      int
	LapTimes  []time.Duration
	Incidents int
}

// Recorder persists event results.
type Recorder interface {
	RecordQualifying(ctx context.Context, grid []Standing) error
	RecordFinish(ctx context.Context, order []Standing) error
}

const recordTimeout = 5 * time.Second

func standingOf(position int, p *Participant) Standing {
	s := Standing{Position: position, Name: p.Name, Incidents: p.Incidents}
	if best, ok := p.bestLap(); ok {
		s.BestLap, s.HasLap = msDuration(best), true
	}
	if c := p.firstCar(); c != nil {
		s.Laps = c.Laps
		s.LapTimes = append([]time.Duration(nil), c.LapTimes...)
	}
	return s
}

func msDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
