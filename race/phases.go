package race

import (
	"context"
	"sort"
	"time"

	"raceserver/protocol"
	"raceserver/track"
)

func (e *Engine) advance(now time.Time) {
	if e.abandoned(now) {
		return
	}
	switch e.state {
	case Unknown, WaitingForClients:
		e.waitForClients(now)
	case WaitingForReady:
		if e.allReady() {
			e.allowSpawns = true
			e.setJoinsOpen(false)
			e.clearReady()
			e.setState(WaitingForSpawns, now)
		}
	case WaitingForSpawns:
		e.waitForSpawns(now)
	case Qualifying:
		if now.Sub(e.stateStart) > e.cfg.Qualifying {
			e.buildGrid(now)
		}
	case LiningUp:
		e.lineUp(now)
	case Countdown:
		e.countDown(now)
	case Race:
		e.race(now)
	case Finish:
		if now.Sub(e.timer0) > e.cfg.FinishLinger {
			e.complete()
		}
	}
}

// abandoned ends an event whose field emptied after the spawn phase began.
func (e *Engine) abandoned(now time.Time) bool {
	if len(e.participants) > 0 || e.state < WaitingForSpawns || e.state == Finish {
		return false
	}
	log.Warn("every participant left, ending the event")
	e.timer0 = now
	e.setState(Finish, now)
	return true
}

func (e *Engine) waitForClients(now time.Time) {
	inWindow := now.Sub(e.stateStart) < e.cfg.JoinWindow
	switch {
	case inWindow && len(e.cfg.ExpectedClients) > 0:
		for _, name := range e.cfg.ExpectedClients {
			if e.byName(name) == nil {
				return
			}
		}
		log.Info("all expected clients connected")
	case inWindow:
		if len(e.participants) < e.cfg.MaxPlayers {
			return
		}
		log.Info("server full")
	default:
		e.setJoinsOpen(false)
		log.Info("Clients no longer allowed to join!")
	}
	e.setState(WaitingForReady, now)
}

func (e *Engine) waitForSpawns(now time.Time) {
	if len(e.participants) == 0 {
		return
	}
	for _, p := range e.participants {
		if len(p.Cars) == 0 {
			return
		}
	}
	e.setState(Qualifying, now)
	e.allowSpawns = false
	e.forceRespawnPits = true
	if e.track.SpawnsPit == nil {
		log.Warn("no pit spawns configured, cars stay where they spawned")
		return
	}
	i := 0
	for _, p := range e.participants {
		for _, c := range p.Cars {
			spawn := e.track.SpawnsPit.Get(i)
			p.peer.Send(protocol.ClientEvent("Respawn", spawn.Command()))
			log.Debugf("%s car %d to pit %d", p.Name, c.ID, i)
			i++
		}
	}
}

func (e *Engine) buildGrid(now time.Time) {
	order := append([]*Participant(nil), e.participants...)
	sort.SliceStable(order, func(i, j int) bool {
		a, aok := order[i].bestLap()
		b, bok := order[j].bestLap()
		if aok != bok {
			return aok
		}
		return aok && a < b
	})
	grid := make([]Standing, len(order))
	for i, p := range order {
		p.GridSpot = i + 1
		grid[i] = standingOf(i+1, p)
		log.Infof("grid %d: %s", p.GridSpot, p.Name)
	}
	e.record(func(ctx context.Context) error { return e.recorder.RecordQualifying(ctx, grid) })

	for _, p := range e.participants {
		for _, c := range p.Cars {
			c.resetLaps()
		}
	}
	e.clearReady()
	e.allowSpawns = false
	e.forceRespawnPits = false
	e.timer0 = now
	e.setState(LiningUp, now)
}

// gridSpawn maps a grid spot to the odd or even side of the grid.
func (e *Engine) gridSpawn(spot int) (track.Spawn, bool) {
	if spot%2 == 0 {
		if e.track.SpawnsEven == nil {
			return track.Spawn{}, false
		}
		return e.track.SpawnsEven.Get(spot/2 - 1), true
	}
	if e.track.SpawnsOdd == nil {
		return track.Spawn{}, false
	}
	return e.track.SpawnsOdd.Get(spot / 2), true
}

func (e *Engine) lineUp(now time.Time) {
	if now.Sub(e.timer0) >= time.Second {
		e.timer0 = now
		for _, p := range e.participants {
			c := p.firstCar()
			spawn, ok := e.gridSpawn(p.GridSpot)
			if c == nil || !ok {
				continue
			}
			at := c.PositionAt(now)
			dxy := track.Distance2(track.Vec2{X: spawn.Pos[0], Y: spawn.Pos[1]}, track.Vec2{X: at[0], Y: at[1]})
			dz := spawn.Pos[2] - at[2]
			if dxy > 1 || dz > 3 || dz < -3 {
				p.peer.Send(protocol.ClientEvent("Respawn", spawn.Command()))
			}
		}
		if e.allReady() {
			e.startCountdown(now)
			return
		}
	}
	if now.Sub(e.stateStart) > e.cfg.LineUpTimeout {
		for _, p := range e.participants {
			if !p.Ready {
				e.kick(p, "Not ready in time!")
			}
		}
		e.startCountdown(now)
	}
}

func (e *Engine) startCountdown(now time.Time) {
	e.countdown = e.cfg.Countdown
	e.timer0 = now
	e.setState(Countdown, now)
	e.pushCountdown()
}

func (e *Engine) countDown(now time.Time) {
	if now.Sub(e.timer0) < time.Second {
		return
	}
	e.timer0 = now
	if e.countdown > 0 {
		e.countdown--
		e.pushCountdown()
		return
	}
	e.forceRespawnPits = true
	e.setState(Race, now)
}

func (e *Engine) pushCountdown() {
	for _, p := range e.participants {
		if p.overlay != nil {
			p.overlay.SetCountdown(e.countdown)
		}
	}
}

func (e *Engine) race(now time.Time) {
	if now.Sub(e.timer0) > 50*time.Millisecond {
		e.timer0 = now
		order := e.standings()
		for i, p := range order {
			if p.overlay != nil {
				p.overlay.SetPosition(i+1, len(order))
			}
		}
	}
	for _, p := range e.participants {
		c := p.firstCar()
		if c != nil && !p.Finished && c.Laps > e.cfg.MaxLaps {
			p.Finished = true
			e.finishOrder = append(e.finishOrder, p)
			log.Infof("%s finished in position %d", p.Name, len(e.finishOrder))
		}
	}
	for _, p := range e.participants {
		if !p.Finished {
			return
		}
	}
	result := make([]Standing, len(e.finishOrder))
	for i, p := range e.finishOrder {
		result[i] = standingOf(i+1, p)
	}
	e.record(func(ctx context.Context) error { return e.recorder.RecordFinish(ctx, result) })
	e.timer0 = now
	e.setState(Finish, now)
}

// standings orders participants by race progress, leaders first.
func (e *Engine) standings() []*Participant {
	n := len(e.track.Checkpoints)
	order := append([]*Participant(nil), e.participants...)
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].progress(n) > order[j].progress(n)
	})
	return order
}

func (e *Engine) allReady() bool {
	if len(e.participants) == 0 {
		return false
	}
	for _, p := range e.participants {
		if !p.Ready {
			return false
		}
	}
	return true
}

func (e *Engine) clearReady() {
	for _, p := range e.participants {
		p.Ready = false
	}
}

func (e *Engine) setJoinsOpen(open bool) {
	e.mu.Lock()
	e.joinsOpen = open
	e.mu.Unlock()
}

func (e *Engine) record(fn func(ctx context.Context) error) {
	if e.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Errorf("failed to record results: %v", err)
	}
}
