package telemetry

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	queueSize     = 64
	uploadTimeout = 10 * time.Second
)

// Reporter is a logrus hook that turns error entries into uploaded reports.
type Reporter struct {
	uploader Uploader
	server   string
	version  string

	queue   chan Report
	done    chan struct{}
	mu      sync.Mutex
	closed  bool
	dropped int
}

var _ logrus.Hook = (*Reporter)(nil)

func NewReporter(uploader Uploader, server, version string) *Reporter {
	r := &Reporter{
		uploader: uploader,
		server:   server,
		version:  version,
		queue:    make(chan Report, queueSize),
		done:     make(chan struct{}),
	}
	go r.process()
	return r
}

func (r *Reporter) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}
}

// Fire queues the entry. Fatal and panic entries are uploaded before returning
// since the process is about to end.
func (r *Reporter) Fire(entry *logrus.Entry) error {
	rep := r.newReport(entry.Level.String(), entry.Message)
	rep.Time = entry.Time
	if len(entry.Data) > 0 {
		rep.Fields = make(map[string]string, len(entry.Data))
		for k, v := range entry.Data {
			rep.Fields[k] = fmt.Sprint(v)
		}
	}
	if entry.Level <= logrus.FatalLevel {
		r.upload(rep)
		return nil
	}
	r.enqueue(rep)
	return nil
}

// Recover reports a panic of the calling goroutine and panics again.
// Use it as `defer reporter.Recover()`.
func (r *Reporter) Recover() {
	v := recover()
	if v == nil {
		return
	}
	rep := r.newReport(logrus.PanicLevel.String(), fmt.Sprint(v))
	rep.Stack = string(debug.Stack())
	r.upload(rep)
	panic(v)
}

// Close uploads what is still queued.
func (r *Reporter) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	<-r.done
}

// Dropped is the number of reports discarded because the queue was full.
func (r *Reporter) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

func (r *Reporter) newReport(level, msg string) Report {
	return Report{
		ID:      uuid.NewString(),
		Time:    time.Now().UTC(),
		Level:   level,
		Message: msg,
		Server:  r.server,
		Version: r.version,
	}
}

func (r *Reporter) enqueue(rep Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.dropped++
		return
	}
	select {
	case r.queue <- rep:
	default:
		r.dropped++
	}
}

func (r *Reporter) process() {
	defer close(r.done)
	for rep := range r.queue {
		r.upload(rep)
	}
}

func (r *Reporter) upload(rep Report) {
	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()
	if err := r.uploader.Upload(ctx, rep); err != nil {
		// Warn keeps the failure out of this hook.
		log.Warnf("crash report %s not sent: %v", rep.ID, err)
	}
}
