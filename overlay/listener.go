package overlay

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"raceserver/queue"
	"raceserver/race"
)

const handshakeTimeout = 10 * time.Second

// Attacher receives overlays once their handshake completes.
type Attacher interface {
	AttachOverlay(name string, sink race.OverlaySink)
}

// Listener accepts overlay connections.
type Listener struct {
	ln       net.Listener
	engine   Attacher
	outboxes *queue.Manager
}

func Listen(addr string, engine Attacher, outboxes *queue.Manager) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{ln: ln, engine: engine, outboxes: outboxes}, nil
}

func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Serve accepts connections until ctx is cancelled or the listener is closed.
func (l *Listener) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		l.ln.Close()
	}()
	log.Infof("Overlay listener on %s", l.ln.Addr())
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Warnf("overlay accept: %v", err)
			continue
		}
		go l.handle(conn)
	}
}

func (l *Listener) Close() error {
	return l.ln.Close()
}

func (l *Listener) handle(conn net.Conn) {
	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	name, err := ReadHandshake(conn)
	if err != nil {
		log.Warnf("overlay from %s: %v", conn.RemoteAddr(), err)
		conn.Close()
		return
	}
	conn.SetReadDeadline(time.Time{})
	log.Infof("overlay from %s follows %s", conn.RemoteAddr(), name)
	o := New(name, conn, l.outboxes)
	l.engine.AttachOverlay(name, o)

	// Overlays never send after the handshake; a read only returns on disconnect.
	_, _ = io.Copy(io.Discard, conn)
	o.Close()
}
