// Package overlay feeds broadcast overlays with the lap, state and position of
// the participant they follow.
package overlay

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"raceserver/logging"
	"raceserver/protocol"
	"raceserver/queue"
	"raceserver/race"
)

var log *logrus.Logger

func init() {
	log = logging.GetLogger()
}

const writeTimeout = 5 * time.Second

// Overlay is one connected overlay. It implements race.OverlaySink.
type Overlay struct {
	Name     string
	conn     net.Conn
	key      string
	out      *queue.Outbox
	outboxes *queue.Manager
}

var _ race.OverlaySink = (*Overlay)(nil)

// New wraps an accepted connection whose handshake named the followed player.
func New(name string, conn net.Conn, outboxes *queue.Manager) *Overlay {
	o := &Overlay{Name: name, conn: conn, key: "overlay " + conn.RemoteAddr().String(), outboxes: outboxes}
	write := func(frame []byte) error {
		if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return err
		}
		return protocol.WriteFrame(conn, frame)
	}
	onError := func(err error) {
		log.Infof("overlay for %s disconnected: %v", name, err)
		conn.Close()
	}
	o.out = outboxes.Open(o.key, write, onError)
	return o
}

func (o *Overlay) send(code byte, body string) {
	o.out.Enqueue(append([]byte{code}, body...))
}

func (o *Overlay) SetLaps(laps int)       { o.send('L', strconv.Itoa(laps)) }
func (o *Overlay) SetMaxLaps(maxLaps int) { o.send('M', strconv.Itoa(maxLaps)) }
func (o *Overlay) SetState(s race.State)  { o.send('S', strconv.Itoa(int(s))) }
func (o *Overlay) SetCountdown(n int)     { o.send('C', strconv.Itoa(n)) }

// SetLapTimes sends every completed lap, joined by '-'.
func (o *Overlay) SetLapTimes(laps []string) {
	o.send('Q', strings.Join(laps, "-"))
}

// SetPosition sends the race position followed by the field size.
func (o *Overlay) SetPosition(position, count int) {
	o.send('A', strconv.Itoa(position))
	o.send('B', strconv.Itoa(count))
}

// Done is closed when the writer stops.
func (o *Overlay) Done() <-chan struct{} {
	return o.out.Done()
}

// Close flushes queued messages and closes the connection.
func (o *Overlay) Close() {
	o.outboxes.Close(o.key, o.out)
	<-o.out.Done()
	o.conn.Close()
}
