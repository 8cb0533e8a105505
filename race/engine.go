package race

import (
	"context"
	"sync"
	"time"

	"raceserver/protocol"
	"raceserver/track"
)

// TickInterval is how often Run advances the engine.
const TickInterval = 10 * time.Millisecond

type inboundKind uint8

const (
	inLeave inboundKind = iota
	inReliable
	inUnreliable
)

type inbound struct {
	kind    inboundKind
	id      uint8
	peer    Peer
	payload []byte
}

type pendingJoin struct {
	id   uint8
	name string
	peer Peer
}

type pendingOverlay struct {
	name string
	sink OverlaySink
}

// Engine owns every participant and advances the event. Join, Leave, Deliver,
// DeliverUnreliable and AttachOverlay may be called from any goroutine; the
// queued input is consumed by Tick, which must only run on one goroutine.
type Engine struct {
	track    *track.Set
	recorder Recorder

	mu        sync.Mutex
	settings  Settings
	ids       map[uint8]string
	joinsOpen bool
	joins     []pendingJoin
	overlays  []pendingOverlay
	inbox     []inbound

	cfg          Settings
	participants []*Participant
	state        State
	stateStart   time.Time
	timer0       time.Time
	overlayAt    time.Time
	countdown    int
	limitsCursor int
	finishOrder  []*Participant

	allowSpawns      bool
	forceRespawnPits bool

	snapMu sync.RWMutex
	snap   Snapshot

	done     chan struct{}
	doneOnce sync.Once
}

func NewEngine(settings Settings, set *track.Set, recorder Recorder) *Engine {
	if set == nil {
		set = &track.Set{}
	}
	return &Engine{
		track:     set,
		recorder:  recorder,
		settings:  settings,
		cfg:       settings,
		ids:       make(map[uint8]string),
		joinsOpen: true,
		countdown: settings.Countdown,
		done:      make(chan struct{}),
	}
}

// Join reserves a client id for name. The participant enters the event on the next tick.
func (e *Engine) Join(name string, peer Peer) (uint8, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.joinsOpen {
		return 0, ErrJoinsClosed
	}
	if !e.settings.whitelisted(name) {
		return 0, ErrNotWhitelisted
	}
	for _, n := range e.ids {
		if n == name {
			return 0, ErrNameTaken
		}
	}
	for id := 0; id <= maxClientID; id++ {
		if _, used := e.ids[uint8(id)]; !used {
			e.ids[uint8(id)] = name
			e.joins = append(e.joins, pendingJoin{id: uint8(id), name: name, peer: peer})
			return uint8(id), nil
		}
	}
	return 0, ErrNoFreeID
}

// Leave marks the participant owning peer as disconnected.
func (e *Engine) Leave(id uint8, peer Peer) {
	e.push(inbound{kind: inLeave, id: id, peer: peer})
}

// Deliver queues a reliable packet from the participant.
func (e *Engine) Deliver(id uint8, peer Peer, payload []byte) {
	e.push(inbound{kind: inReliable, id: id, peer: peer, payload: payload})
}

// DeliverUnreliable queues a datagram from the participant.
func (e *Engine) DeliverUnreliable(id uint8, peer Peer, payload []byte) {
	e.push(inbound{kind: inUnreliable, id: id, peer: peer, payload: payload})
}

// AttachOverlay hands an overlay connection to the participant called name.
func (e *Engine) AttachOverlay(name string, sink OverlaySink) {
	e.mu.Lock()
	e.overlays = append(e.overlays, pendingOverlay{name: name, sink: sink})
	e.mu.Unlock()
}

// UpdateLive applies the settings that may change while the event runs.
func (e *Engine) UpdateLive(maxCars int, logChat bool) {
	e.mu.Lock()
	e.settings.MaxCars = maxCars
	e.settings.LogChat = logChat
	e.mu.Unlock()
}

// JoinsOpen reports whether new players are still admitted.
func (e *Engine) JoinsOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.joinsOpen
}

func (e *Engine) push(in inbound) {
	e.mu.Lock()
	e.inbox = append(e.inbox, in)
	e.mu.Unlock()
}

// Done is closed once the event has finished and the linger time passed.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Run ticks the engine until the event completes or ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.done:
			return nil
		case now := <-ticker.C:
			e.Tick(now)
		}
	}
}

// Tick runs one iteration of the event loop.
func (e *Engine) Tick(now time.Time) {
	if e.stateStart.IsZero() {
		e.setState(WaitingForClients, now)
	}

	e.mu.Lock()
	joins, overlays, inbox := e.joins, e.overlays, e.inbox
	e.joins, e.overlays, e.inbox = nil, nil, nil
	e.cfg = e.settings
	e.mu.Unlock()

	e.admit(joins)
	e.attachOverlays(overlays)
	for _, in := range inbox {
		e.handle(in, now)
	}
	e.removeLeaving()
	e.refreshOverlays(now)

	if e.state.OnTrack() {
		e.checkLimits(now)
		e.checkCheckpoints(now)
	}
	e.enforceWhitelist()
	e.advance(now)
	e.limitsCursor++
	e.publish()
}

func (e *Engine) admit(joins []pendingJoin) {
	for _, j := range joins {
		p := &Participant{ID: j.id, Name: j.name, peer: j.peer}
		e.participants = append(e.participants, p)
		log.Infof("%s joined as client %d", j.name, j.id)
		e.broadcast(protocol.Notification("Welcome "+j.name+"!"), nil)
	}
}

func (e *Engine) attachOverlays(pending []pendingOverlay) {
	var unmatched []pendingOverlay
	for _, o := range pending {
		if closed(o.sink.Done()) {
			log.Debugf("overlay for %s left before %s joined", o.name, o.name)
			continue
		}
		p := e.byName(o.name)
		if p == nil {
			unmatched = append(unmatched, o)
			continue
		}
		if p.overlay != nil {
			go p.overlay.Close()
		}
		p.overlay = o.sink
		o.sink.SetState(e.state)
		if c := p.firstCar(); c != nil {
			c.LapsDirty = true
		}
		log.Infof("overlay attached for %s", p.Name)
	}
	if len(unmatched) > 0 {
		e.mu.Lock()
		e.overlays = append(unmatched, e.overlays...)
		e.mu.Unlock()
	}
}

func closed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func (e *Engine) handle(in inbound, now time.Time) {
	p := e.byID(in.id)
	if p == nil || p.peer != in.peer {
		return
	}
	if in.kind == inLeave {
		p.leaving = true
		return
	}
	if p.leaving {
		return
	}
	var err error
	if in.kind == inReliable {
		err = e.handleReliable(p, in.payload, now)
	} else {
		err = e.handleUnreliable(p, in.payload, now)
	}
	if err != nil {
		log.Warnf("packet from %s: %v", p.Name, err)
		e.kick(p, "Kicked: "+err.Error())
	}
}

func (e *Engine) removeLeaving() {
	kept := e.participants[:0]
	for _, p := range e.participants {
		if !p.leaving {
			kept = append(kept, p)
			continue
		}
		for _, c := range p.Cars {
			e.broadcast(protocol.VehicleDeleted(p.ID, c.ID), p)
		}
		if p.overlay != nil {
			go p.overlay.Close()
			p.overlay = nil
		}
		e.mu.Lock()
		delete(e.ids, p.ID)
		e.mu.Unlock()
		log.Infof("%s disconnected", p.Name)
	}
	for i := len(kept); i < len(e.participants); i++ {
		e.participants[i] = nil
	}
	e.participants = kept
}

func (e *Engine) refreshOverlays(now time.Time) {
	periodic := now.Sub(e.overlayAt) >= 100*time.Millisecond
	maxLaps := 0
	if e.state == Race {
		maxLaps = e.cfg.MaxLaps
	}
	for _, p := range e.participants {
		if p.overlay == nil {
			continue
		}
		if closed(p.overlay.Done()) {
			log.Infof("overlay for %s disconnected", p.Name)
			p.overlay = nil
			continue
		}
		if c := p.firstCar(); c != nil && c.LapsDirty {
			p.overlay.SetLaps(c.Laps)
			times := make([]string, len(c.LapTimes))
			for i, l := range c.LapTimes {
				times[i] = FormatLapTime(l)
			}
			p.overlay.SetLapTimes(times)
			c.LapsDirty = false
		}
		if periodic {
			p.overlay.SetMaxLaps(maxLaps)
			p.overlay.SetState(e.state)
		}
	}
	if periodic {
		e.overlayAt = now
	}
}

func (e *Engine) enforceWhitelist() {
	if len(e.cfg.ExpectedClients) == 0 {
		return
	}
	for _, p := range e.participants {
		if !p.leaving && !e.cfg.whitelisted(p.Name) {
			e.kick(p, "Not whitelisted for this server!")
		}
	}
}

func (e *Engine) kick(p *Participant, reason string) {
	if p.leaving {
		return
	}
	log.Infof("kicking %s: %s", p.Name, reason)
	p.peer.Kick(reason)
	p.leaving = true
}

func (e *Engine) broadcast(payload []byte, except *Participant) {
	for _, p := range e.participants {
		if p != except && !p.leaving {
			p.peer.Send(payload)
		}
	}
}

func (e *Engine) broadcastUnreliable(payload []byte, except *Participant) {
	for _, p := range e.participants {
		if p != except && !p.leaving {
			p.peer.SendUnreliable(payload)
		}
	}
}

func (e *Engine) byID(id uint8) *Participant {
	for _, p := range e.participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (e *Engine) byName(name string) *Participant {
	for _, p := range e.participants {
		if p.Name == name && !p.leaving {
			return p
		}
	}
	return nil
}

func (e *Engine) setState(s State, now time.Time) {
	log.Debugf("state %s -> %s", e.state, s)
	e.state = s
	e.stateStart = now
	for _, p := range e.participants {
		if p.overlay != nil {
			p.overlay.SetState(s)
		}
	}
}

func (e *Engine) complete() {
	e.doneOnce.Do(func() {
		log.Info("Event complete")
		close(e.done)
	})
}
