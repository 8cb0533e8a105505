package handler

import (
	"github.com/sirupsen/logrus"
	"raceserver/logging"
)

var log *logrus.Logger

func init() {
	log = logging.GetLogger()
}
