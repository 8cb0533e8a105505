// Package gamenet accepts game clients over TCP and their position datagrams
// over UDP on the same port.
package gamenet

import (
	"github.com/sirupsen/logrus"

	"raceserver/logging"
	"raceserver/race"
)

var log *logrus.Logger

func init() {
	log = logging.GetLogger()
}

// Engine is the part of the race engine the network layer feeds.
type Engine interface {
	Join(name string, peer race.Peer) (uint8, error)
	Leave(id uint8, peer race.Peer)
	Deliver(id uint8, peer race.Peer, payload []byte)
	DeliverUnreliable(id uint8, peer race.Peer, payload []byte)
}
