package queue

import (
	"sync"
	"time"
)

// Writer delivers one frame to the remote end.
type Writer func(frame []byte) error

// Outbox buffers frames for one connection so the race loop never waits on a slow socket.
type Outbox struct {
	name         string
	queue        chan []byte
	write        Writer
	closed       chan struct{}
	done         chan struct{}
	closeOnce    sync.Once
	onError      func(error)
	mutex        sync.Mutex
	sent         int
	dropped      int
	needsLog     bool
	lastLogTime  time.Time
	logRateLimit time.Duration
}

// NewOutbox starts the writer for a connection. onError is called once if a write fails,
// after which the outbox stops.
func NewOutbox(name string, size int, write Writer, onError func(error)) *Outbox {
	if size <= 0 {
		size = 1024
	}
	ob := &Outbox{
		name:         name,
		queue:        make(chan []byte, size),
		write:        write,
		closed:       make(chan struct{}),
		done:         make(chan struct{}),
		onError:      onError,
		logRateLimit: 1 * time.Second,
	}

	go ob.process()
	go ob.monitor()
	return ob
}

// Enqueue adds a frame without blocking. It reports false if the frame was dropped
// because the outbox is full or shut down.
func (ob *Outbox) Enqueue(frame []byte) bool {
	select {
	case <-ob.closed:
		return false
	default:
	}
	select {
	case ob.queue <- frame:
		return true
	default:
		ob.mutex.Lock()
		ob.dropped++
		ob.needsLog = true
		ob.mutex.Unlock()
		return false
	}
}

// Len is the number of frames waiting to be written.
func (ob *Outbox) Len() int {
	return len(ob.queue)
}

// Stats returns the number of frames written and dropped so far.
func (ob *Outbox) Stats() (sent, dropped int) {
	ob.mutex.Lock()
	defer ob.mutex.Unlock()
	return ob.sent, ob.dropped
}

// Shutdown stops accepting frames. Frames already queued are still written.
func (ob *Outbox) Shutdown() {
	ob.closeOnce.Do(func() {
		close(ob.closed)
	})
}

// Done is closed once the writer has exited.
func (ob *Outbox) Done() <-chan struct{} {
	return ob.done
}

// monitor logs drops, rate limited.
func (ob *Outbox) monitor() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ob.done:
			return
		case <-ticker.C:
			ob.logMetrics()
		}
	}
}

func (ob *Outbox) logMetrics() {
	ob.mutex.Lock()
	defer ob.mutex.Unlock()

	now := time.Now()
	if ob.needsLog && now.Sub(ob.lastLogTime) >= ob.logRateLimit {
		log.Warnf("Outbox: %s | Queued: %d | Sent: %d | Dropped: %d", ob.name, len(ob.queue), ob.sent, ob.dropped)
		ob.lastLogTime = now
		ob.needsLog = false
	}
}
