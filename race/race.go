// Package race runs the organised event: participants, their cars, lap counting
// and the phase sequence from joining to the finish.
package race

import (
	"errors"

	"github.com/sirupsen/logrus"

	"raceserver/logging"
)

var log *logrus.Logger

func init() {
	log = logging.GetLogger()
}

var (
	ErrCarDoesntExist    = errors.New("car does not exist")
	ErrClientDoesntExist = errors.New("client does not exist")
	ErrJoinsClosed       = errors.New("joins are closed")
	ErrNameTaken         = errors.New("username already connected")
	ErrNotWhitelisted    = errors.New("not whitelisted for this server")
	ErrNoFreeID          = errors.New("no free client id")
)

// maxClientID keeps id+1 inside the single datagram header byte.
const maxClientID = 254
