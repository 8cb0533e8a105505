// Package telemetry uploads crash reports for error log entries and panics.
package telemetry

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"raceserver/logging"
)

var log *logrus.Logger

func init() {
	log = logging.GetLogger()
}

// Report is one crash report as stored in the bucket.
type Report struct {
	ID      string            `json:"id"`
	Time    time.Time         `json:"time"`
	Level   string            `json:"level"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Server  string            `json:"server"`
	Version string            `json:"version"`
	Stack   string            `json:"stack,omitempty"`
}

// Uploader stores a report.
type Uploader interface {
	Upload(ctx context.Context, r Report) error
}

// OptOutNotice is logged at start when crash reporting is on and the notice is enabled.
const OptOutNotice = "Error reporting is enabled. Errors are sent to the server developers to help fix them. " +
	"Set SendErrors = false under [Misc] in ServerConfig.toml to opt out, " +
	"or SendErrorsShowMessage = false to hide this message."
