package race

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"raceserver/protocol"
	"raceserver/track"
)

func (e *Engine) handleReliable(p *Participant, payload []byte, now time.Time) error {
	data, err := protocol.Decompress(payload)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if protocol.IsRelay(data) {
		e.broadcast(data, p)
		return nil
	}
	switch data[0] {
	case protocol.CodeSync:
		p.peer.Send(protocol.SyncReply(p.Name))
	case protocol.CodeVehicle:
		return e.handleVehicle(p, data)
	case protocol.CodeChat:
		e.handleChat(p, data)
	case protocol.CodeEvent:
		return e.handleEvent(data)
	default:
		log.Debugf("unhandled packet %q from %s", data[0], p.Name)
	}
	return nil
}

func (e *Engine) handleUnreliable(p *Participant, payload []byte, now time.Time) error {
	data, err := protocol.Decompress(payload)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if protocol.IsRelay(data) {
		e.broadcastUnreliable(data, p)
		return nil
	}
	switch data[0] {
	case protocol.CodePing:
		p.peer.SendUnreliable(protocol.Ping())
	case protocol.CodePosition:
		t, err := protocol.ParseTarget(data)
		if err != nil {
			return err
		}
		if t.ClientID != p.ID {
			log.Debugf("%s sent a position for client %d", p.Name, t.ClientID)
			return nil
		}
		c := p.car(t.VehicleID)
		if c == nil {
			log.Debugf("position from %s: %v", p.Name, ErrCarDoesntExist)
			return nil
		}
		tr, err := protocol.ParseTransform(t.Body)
		if err != nil {
			return err
		}
		c.Pos, c.Rot, c.Vel, c.RVel = tr.Pos, tr.Rot, tr.Vel, tr.RVel
		c.Tim, c.Ping = tr.Tim, tr.Ping
		c.LastUpdate = now
		e.broadcastUnreliable(data, p)
	default:
		log.Debugf("unhandled datagram %q from %s", data[0], p.Name)
	}
	return nil
}

func (e *Engine) handleVehicle(p *Participant, data []byte) error {
	if len(data) < 6 {
		log.Errorf("vehicle packet too short from %s: %q", p.Name, data)
		return nil
	}
	switch data[1] {
	case protocol.VehicleSpawn:
		vehicle, err := protocol.ParseSpawn(data)
		if err != nil {
			return err
		}
		allowed := e.allowSpawns && len(p.Cars) < e.cfg.MaxCars
		c := p.registerCar(vehicle)
		spawned := protocol.VehicleSpawned("USER", p.Name, p.ID, c.ID, vehicle)
		if allowed {
			p.peer.Send(protocol.ClientEvent("GetSize", strconv.Itoa(int(p.ID))))
			e.broadcast(spawned, nil)
			log.Infof("%s spawned vehicle %d", p.Name, c.ID)
			return nil
		}
		p.peer.Send(spawned)
		p.peer.Send(protocol.VehicleDeleted(p.ID, c.ID))
		p.removeCar(c.ID)
		log.Infof("blocked spawn for %s", p.Name)

	case protocol.VehicleChange:
		t, err := protocol.ParseTarget(data)
		if err != nil {
			return err
		}
		if t.ClientID == p.ID {
			if c := p.car(t.VehicleID); c != nil {
				c.Config = t.Body
			}
		}
		e.broadcast(data, p)

	case protocol.VehicleDelete:
		t, err := protocol.ParseTarget(data)
		if err != nil {
			return err
		}
		if t.ClientID != p.ID {
			log.Warnf("%s tried to delete vehicle %d-%d", p.Name, t.ClientID, t.VehicleID)
			return nil
		}
		p.removeCar(t.VehicleID)
		e.broadcast(data, nil)
		log.Infof("%s deleted vehicle %d", p.Name, t.VehicleID)

	case protocol.VehicleReset:
		if e.forceRespawnPits {
			if err := e.respawnInPits(p, data); err != nil {
				return err
			}
		}
		e.broadcast(data, p)

	case protocol.VehicleTouch:
		e.broadcast(data, p)

	case protocol.VehicleMisc:
		e.broadcast(data, nil)

	default:
		log.Errorf("unknown vehicle packet %q from %s", data[1], p.Name)
	}
	return nil
}

func (e *Engine) respawnInPits(p *Participant, data []byte) error {
	t, err := protocol.ParseTarget(data)
	if err != nil {
		return err
	}
	reset, err := protocol.ParseReset(t.Body)
	if err != nil {
		return err
	}
	c := p.car(t.VehicleID)
	if t.ClientID != p.ID || c == nil {
		return nil
	}
	c.NextCheckpoint = 0
	if e.state == Qualifying {
		c.LapStart = time.Time{}
		c.OfftrackStart = time.Time{}
	}
	if e.track.SpawnsPit == nil {
		log.Warn("no pit spawns configured, reset left in place")
		return nil
	}
	spawn := e.track.SpawnsPit.Get(int(t.ClientID))
	at := [3]float64{reset.Pos.X, reset.Pos.Y, reset.Pos.Z}
	if e.state != LiningUp && e.state != Countdown && track.Distance3(spawn.Pos, at) > 1 {
		p.peer.Send(protocol.ClientEvent("Respawn", spawn.Command()))
	}
	return nil
}

func (e *Engine) handleChat(p *Participant, data []byte) {
	msg := protocol.ParseChat(data)
	if strings.HasPrefix(msg, "!") {
		switch msg {
		case "!ready":
			p.Ready = true
			p.peer.Send(protocol.ServerChat("You are now ready!"))
		case "!pos":
			if c := p.firstCar(); c != nil {
				log.Debugf("%s: pos %v rot %v vel %v", p.Name, c.Pos, c.Rot, c.Vel)
			}
		default:
			p.peer.Send(protocol.ServerChat("Unknown command!"))
		}
		return
	}
	e.broadcast(data, nil)
	if e.cfg.LogChat {
		log.WithField("chat", true).Infof("%s: %s", p.Name, msg)
	}
}

func (e *Engine) handleEvent(data []byte) error {
	name, payload, err := protocol.ParseEvent(data)
	if err != nil {
		return err
	}
	switch name {
	case "SetSize":
		return e.setSize(payload)
	default:
		log.Errorf("unknown client event %q", name)
	}
	return nil
}

func (e *Engine) setSize(payload string) error {
	parts := strings.Split(payload, ";")
	if len(parts) != 4 {
		return fmt.Errorf("%w: SetSize %q", protocol.ErrBrokenPacket, payload)
	}
	id, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return fmt.Errorf("%w: SetSize id %q", protocol.ErrBrokenPacket, parts[0])
	}
	var size [3]float64
	for i, s := range parts[1:] {
		if size[i], err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return fmt.Errorf("%w: SetSize value %q", protocol.ErrBrokenPacket, s)
		}
	}
	target := e.byID(uint8(id))
	if target == nil {
		log.Warnf("SetSize for %d: %v", id, ErrClientDoesntExist)
		return nil
	}
	c := target.firstCar()
	if c == nil {
		log.Warnf("SetSize for %s: %v", target.Name, ErrCarDoesntExist)
		return nil
	}
	c.HitboxHalf = [3]float64{size[0] / 2, size[1] / 2, size[2] / 2}
	log.Debugf("hitbox of %s set to %v", target.Name, c.HitboxHalf)
	return nil
}
