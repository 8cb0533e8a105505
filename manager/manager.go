// Package manager hands out the server's player slots.
package manager

import (
	"github.com/sirupsen/logrus"

	"raceserver/logging"
)

var log *logrus.Logger

func init() {
	log = logging.GetLogger()
}
