package transport

import (
	"bufio"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qi-bus/qibus/internal/wire"
)

// Conn is a framed, full-duplex Socket over a net.Conn. It is the
// concrete descendant of the teacher's connection type: conn, a
// sendLock, and a background receiver loop that demultiplexes inbound
// messages to per-service handlers (the teacher's switchboard,
// generalized from a single localMap to a per-service Handler table
// since qibus addresses many remote services over one socket).
type Conn struct {
	ID uuid.UUID

	conn   net.Conn
	reader *bufio.Reader
	log    *zap.Logger

	sendMu sync.Mutex

	dispatchMu sync.RWMutex
	dispatch   map[uint32]map[Token]Handler
	nextToken  atomic.Uint64

	connected atomic.Bool
	closeOnce sync.Once
}

// NewConn wraps conn for framed send/receive and starts its receive
// loop. The receive loop runs until conn is closed or a frame fails
// to decode, at which point the socket is marked disconnected.
func NewConn(conn net.Conn, log *zap.Logger) *Conn {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Conn{
		ID:       uuid.New(),
		conn:     conn,
		reader:   bufio.NewReader(conn),
		dispatch: make(map[uint32]map[Token]Handler),
	}
	c.log = log.With(zap.Stringer("conn_id", c.ID))
	c.connected.Store(true)
	go c.receiveLoop()
	return c
}

// Send implements Socket. It does not queue: it writes the frame to
// the underlying connection before returning, so it blocks until that
// write completes (over a net.Pipe, until the peer reads it).
func (c *Conn) Send(msg *wire.Message) bool {
	if !c.connected.Load() {
		return false
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if err := writeFrame(c.conn, msg); err != nil {
		c.log.Warn("transport: send failed", zap.Error(err), zap.Uint32("request_id", msg.ID()))
		c.markDisconnected()
		return false
	}
	return true
}

// IsConnected implements Socket.
func (c *Conn) IsConnected() bool {
	return c.connected.Load()
}

// MessagePendingConnect implements Socket.
func (c *Conn) MessagePendingConnect(service uint32, handler Handler) Token {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()
	if c.dispatch[service] == nil {
		c.dispatch[service] = make(map[Token]Handler)
	}
	tok := Token(c.nextToken.Add(1))
	c.dispatch[service][tok] = handler
	return tok
}

// MessagePendingDisconnect implements Socket.
func (c *Conn) MessagePendingDisconnect(service uint32, token Token) {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()
	if handlers, ok := c.dispatch[service]; ok {
		delete(handlers, token)
		if len(handlers) == 0 {
			delete(c.dispatch, service)
		}
	}
}

// RemoteAddr returns the underlying connection's remote address. Not
// part of Socket; exposed for diagnostics and tests.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Close closes the underlying connection. Idempotent.
func (c *Conn) Close() error {
	c.markDisconnected()
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}

func (c *Conn) markDisconnected() {
	c.connected.Store(false)
}

// receiveLoop reads frames until the connection fails, fanning each
// one out to every handler registered for its service — the
// switchboard step of the teacher's reciever().
func (c *Conn) receiveLoop() {
	defer c.markDisconnected()
	for {
		msg, err := readFrame(c.reader)
		if err != nil {
			if err != io.EOF {
				c.log.Debug("transport: receive loop ending", zap.Error(err))
			}
			return
		}
		c.dispatchMu.RLock()
		handlers := c.dispatch[msg.Service()]
		fanout := make([]Handler, 0, len(handlers))
		for _, h := range handlers {
			fanout = append(fanout, h)
		}
		c.dispatchMu.RUnlock()

		if len(fanout) == 0 {
			c.log.Debug("transport: no dispatcher for service", zap.Uint32("service", msg.Service()))
			continue
		}
		for _, h := range fanout {
			h(msg)
		}
	}
}
