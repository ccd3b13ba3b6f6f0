// Package network implements the RAW and SBS listening services of
// spec.md §4.8 and the bookkeeping (deny list, unique source addresses)
// every accepted connection passes through.
package network

import (
	"net"
	"sync"
	"sync/atomic"
)

// Tag identifies one of the six network services spec.md §3 names.
type Tag int

const (
	RawIn Tag = iota
	RawOut
	SBSIn
	SBSOut
	HTTP
	RTLTCP
)

func (t Tag) String() string {
	switch t {
	case RawIn:
		return "RAW_IN"
	case RawOut:
		return "RAW_OUT"
	case SBSIn:
		return "SBS_IN"
	case SBSOut:
		return "SBS_OUT"
	case HTTP:
		return "HTTP"
	case RTLTCP:
		return "RTL_TCP"
	default:
		return "UNKNOWN"
	}
}

// Service tracks one listening or active network endpoint: its
// protocol, address, and traffic counters. A map[Tag]*Service plus a
// mutex on the connection list replaces the teacher's intrusive linked
// lists, per spec.md §9's DESIGN NOTES.
type Service struct {
	Tag       Tag
	Proto     string // "tcp" or "udp"
	Addr      string
	Listening bool
	Sending   bool

	BytesIn  uint64
	BytesOut uint64
	Accepts  uint64
	Rejects  uint64

	mu    sync.Mutex
	conns map[*Connection]struct{}
}

// NewService builds a Service descriptor for bookkeeping; it does not
// itself open a socket (see Reactor.ListenRawIn etc).
func NewService(tag Tag, proto, addr string, listening, sending bool) *Service {
	return &Service{
		Tag:       tag,
		Proto:     proto,
		Addr:      addr,
		Listening: listening,
		Sending:   sending,
		conns:     make(map[*Connection]struct{}),
	}
}

func (s *Service) addConn(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[c] = struct{}{}
	atomic.AddUint64(&s.Accepts, 1)
}

func (s *Service) removeConn(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}

// Broadcast writes data to every currently connected client, used by
// the RAW_OUT/SBS_OUT listening services. Connections whose write
// fails are dropped.
func (s *Service) Broadcast(data []byte) {
	s.mu.Lock()
	targets := make([]*Connection, 0, len(s.conns))
	for c := range s.conns {
		targets = append(targets, c)
	}
	s.mu.Unlock()

	for _, c := range targets {
		if _, err := c.conn.Write(data); err != nil {
			c.Close()
			continue
		}
		atomic.AddUint64(&s.BytesOut, uint64(len(data)))
	}
}

// ConnCount reports the number of currently connected clients.
func (s *Service) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Connection wraps one accepted or dialed net.Conn with the service it
// belongs to and the remote address recorded at accept time.
type Connection struct {
	conn    net.Conn
	service *Service
	remote  net.IP
}

// Close removes the connection from its service's broadcast list and
// closes the underlying socket.
func (c *Connection) Close() {
	c.service.removeConn(c)
	c.conn.Close()
}
