package gamenet

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"raceserver/protocol"
	"raceserver/queue"
	"raceserver/race"
)

const writeTimeout = 10 * time.Second

// Client is one connected game client. It implements race.Peer.
type Client struct {
	ID   uint8
	Name string

	server   *Server
	conn     net.Conn
	key      string
	out      *queue.Outbox
	udpAddr  atomic.Pointer[net.UDPAddr]
	sendMu   sync.Mutex
	kickOnce sync.Once
}

var _ race.Peer = (*Client)(nil)

func newClient(s *Server, conn net.Conn, name string) *Client {
	c := &Client{Name: name, server: s, conn: conn, key: "client " + conn.RemoteAddr().String()}
	write := func(frame []byte) error {
		if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return err
		}
		return protocol.WriteFrame(conn, frame)
	}
	c.out = s.outboxes.Open(c.key, write, func(err error) {
		log.Debugf("write to %s failed: %v", name, err)
		conn.Close()
	})
	return c
}

// Send queues a reliable frame.
func (c *Client) Send(payload []byte) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	c.out.Enqueue(payload)
}

// SendUnreliable writes a datagram to the address the client last sent from.
// Large payloads are compressed.
func (c *Client) SendUnreliable(payload []byte) {
	addr := c.udpAddr.Load()
	if addr == nil {
		return
	}
	data, err := protocol.MaybeCompress(payload)
	if err != nil {
		log.Errorf("compress datagram for %s: %v", c.Name, err)
		return
	}
	if _, err := c.server.udp.WriteToUDP(data, addr); err != nil {
		log.Debugf("datagram to %s: %v", c.Name, err)
	}
}

// Kick sends the reason and closes the connection once it is flushed.
func (c *Client) Kick(reason string) {
	c.kickOnce.Do(func() {
		c.Send(protocol.Kick(reason))
		c.server.outboxes.Close(c.key, c.out)
		go func() {
			<-c.out.Done()
			c.conn.Close()
		}()
	})
}

// matchesUDP binds the first datagram address whose host matches the TCP peer.
func (c *Client) matchesUDP(addr *net.UDPAddr) bool {
	if cur := c.udpAddr.Load(); cur != nil {
		return cur.IP.Equal(addr.IP) && cur.Port == addr.Port
	}
	tcp, ok := c.conn.RemoteAddr().(*net.TCPAddr)
	if !ok || !tcp.IP.Equal(addr.IP) {
		return false
	}
	return c.udpAddr.CompareAndSwap(nil, addr)
}
