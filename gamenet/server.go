package gamenet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"raceserver/manager"
	"raceserver/protocol"
	"raceserver/queue"
	"raceserver/race"
)

const handshakeTimeout = 10 * time.Second

// Server owns the game listeners.
type Server struct {
	mapName  string
	engine   Engine
	slots    *manager.SlotManager
	outboxes *queue.Manager

	tcp net.Listener
	udp *net.UDPConn

	mu      sync.RWMutex
	clients map[uint8]*Client
}

// Listen binds TCP and UDP on addr. A zero port binds UDP to the port TCP picked.
func Listen(addr, mapName string, engine Engine, slots *manager.SlotManager, outboxes *queue.Manager) (*Server, error) {
	tcp, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	bound := tcp.Addr().(*net.TCPAddr)
	udp, err := net.ListenUDP("udp", &net.UDPAddr{IP: bound.IP, Port: bound.Port})
	if err != nil {
		tcp.Close()
		return nil, fmt.Errorf("udp on %s: %w", bound, err)
	}
	return &Server{
		mapName:  mapName,
		engine:   engine,
		slots:    slots,
		outboxes: outboxes,
		tcp:      tcp,
		udp:      udp,
		clients:  make(map[uint8]*Client),
	}, nil
}

func (s *Server) Addr() net.Addr {
	return s.tcp.Addr()
}

// Players is the number of connected clients.
func (s *Server) Players() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Serve runs the accept loop and the datagram reader until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.tcp.Close()
		s.udp.Close()
	}()
	go s.readDatagrams()

	log.Infof("Listening for game clients on %s", s.tcp.Addr())
	for {
		conn, err := s.tcp.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Warnf("accept: %v", err)
			continue
		}
		go s.handle(conn)
	}
}

// Close stops both listeners.
func (s *Server) Close() error {
	return errors.Join(s.tcp.Close(), s.udp.Close())
}

func reject(conn net.Conn, reason string) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = protocol.WriteFrame(conn, protocol.Kick(reason))
	conn.Close()
}

func kickReason(err error) string {
	switch {
	case errors.Is(err, race.ErrJoinsClosed):
		return "The event has already started!"
	case errors.Is(err, race.ErrNameTaken):
		return "Username already in use!"
	case errors.Is(err, race.ErrNotWhitelisted):
		return "Not whitelisted for this server!"
	default:
		return "Could not join: " + err.Error()
	}
}

func (s *Server) handle(conn net.Conn) {
	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	frame, err := protocol.ReadFrame(conn)
	if err != nil {
		log.Debugf("handshake from %s: %v", conn.RemoteAddr(), err)
		conn.Close()
		return
	}
	name, err := protocol.ParseHello(frame)
	if err != nil {
		log.Warnf("handshake from %s: %v", conn.RemoteAddr(), err)
		reject(conn, "Invalid handshake")
		return
	}
	conn.SetReadDeadline(time.Time{})

	release, err := s.slots.Acquire()
	if err != nil {
		log.Infof("rejected %s: %v", name, err)
		reject(conn, "Server full!")
		return
	}
	defer release()
	if s.slots.Full() {
		log.Infof("%s took the last player slot", name)
	}

	c := newClient(s, conn, name)
	// Hold sends until the accept and map frames are queued.
	c.sendMu.Lock()
	id, err := s.engine.Join(name, c)
	if err != nil {
		c.sendMu.Unlock()
		log.Infof("rejected %s: %v", name, err)
		c.Kick(kickReason(err))
		<-c.out.Done()
		return
	}
	c.ID = id
	c.out.Enqueue(protocol.Accepted(id))
	c.out.Enqueue(protocol.MapName(s.mapName))
	c.sendMu.Unlock()

	s.mu.Lock()
	s.clients[id] = c
	s.mu.Unlock()
	log.Infof("%s connected from %s", name, conn.RemoteAddr())

	for {
		frame, err := protocol.ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Debugf("read from %s: %v", name, err)
			}
			break
		}
		s.engine.Deliver(id, c, frame)
	}

	s.engine.Leave(id, c)
	s.mu.Lock()
	if s.clients[id] == c {
		delete(s.clients, id)
	}
	s.mu.Unlock()
	s.outboxes.Close(c.key, c.out)
	conn.Close()
}

func (s *Server) readDatagrams() {
	buf := make([]byte, 64<<10)
	for {
		n, addr, err := s.udp.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Debugf("udp read: %v", err)
			continue
		}
		id, msg, err := protocol.ParseDatagram(buf[:n])
		if err != nil {
			continue
		}
		s.mu.RLock()
		c := s.clients[id]
		s.mu.RUnlock()
		if c == nil || !c.matchesUDP(addr) {
			continue
		}
		s.engine.DeliverUnreliable(id, c, append([]byte(nil), msg...))
	}
}
