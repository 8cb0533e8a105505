// Package queue buffers outgoing frames per connection.
package queue

import (
	"github.com/sirupsen/logrus"

	"raceserver/logging"
)

var log *logrus.Logger

func init() {
	log = logging.GetLogger()
}
