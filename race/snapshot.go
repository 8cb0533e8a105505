package race

import "sort"

// ParticipantView is the public view of one participant.
type ParticipantView struct {
	ID        uint8   `json:"id"`
	Name      string  `json:"name"`
	Ready     bool    `json:"ready"`
	GridSpot  int     `json:"grid_spot"`
	Cars      int     `json:"cars"`
	Laps      int     `json:"laps"`
	BestLapMs int64   `json:"best_lap_ms,omitempty"`
	BestLap   string  `json:"best_lap,omitempty"`
	Incidents int     `json:"incidents"`
	Finished  bool    `json:"finished"`
	Progress  float64 `json:"progress"`
}

// Snapshot is a copy of the event state taken at the end of a tick.
type Snapshot struct {
	State        State             `json:"state"`
	StateName    string            `json:"state_name"`
	Countdown    int               `json:"countdown"`
	JoinsOpen    bool              `json:"joins_open"`
	Participants []ParticipantView `json:"participants"`
}

// Snapshot returns the state published by the last tick. Participants are sorted by id.
func (e *Engine) Snapshot() Snapshot {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	s := e.snap
	s.Participants = append([]ParticipantView(nil), e.snap.Participants...)
	return s
}

func (e *Engine) publish() {
	n := len(e.track.Checkpoints)
	views := make([]ParticipantView, 0, len(e.participants))
	for _, p := range e.participants {
		v := ParticipantView{
			ID:        p.ID,
			Name:      p.Name,
			Ready:     p.Ready,
			GridSpot:  p.GridSpot,
			Cars:      len(p.Cars),
			Incidents: p.Incidents,
			Finished:  p.Finished,
			Progress:  p.progress(n),
		}
		if c := p.firstCar(); c != nil {
			v.Laps = c.Laps
		}
		if best, ok := p.bestLap(); ok {
			v.BestLapMs = best
			v.BestLap = FormatLapTime(msDuration(best))
		}
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })

	e.mu.Lock()
	open := e.joinsOpen
	e.mu.Unlock()

	e.snapMu.Lock()
	e.snap = Snapshot{
		State:        e.state,
		StateName:    e.state.String(),
		Countdown:    e.countdown,
		JoinsOpen:    open,
		Participants: views,
	}
	e.snapMu.Unlock()
}
