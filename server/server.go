// Package server implements the transport server from spec.md §4.4:
// an accept loop driven by an event-loop thread, handing accepted
// sockets off through a pending-connection queue to a delegate. It is
// the generalization of the teacher's Caller.Listen — a single-socket
// accept loop — into a standalone component decoupled from any one
// Caller/proxy, since spec.md scopes the server as its own leaf.
package server

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/qi-bus/qibus/eventloop"
	"github.com/qi-bus/qibus/metrics"
	"github.com/qi-bus/qibus/transport"
)

var tracer = otel.Tracer("github.com/qi-bus/qibus/server")

// Socket is the subset of transport.Socket the server hands to its
// delegate; aliased here so callers needn't import transport directly
// just to implement Delegate.
type Socket = transport.Socket

// Delegate is notified once per accepted socket, per spec.md §6.
// Calls to NewConnection prior to SetCallbacks are lost, matching
// spec.md §4.4's documented behavior.
type Delegate interface {
	NewConnection()
}

type state uint32

const (
	stateIdle state = iota
	stateListening
)

// TransportServer accepts inbound connections and queues them for a
// delegate to drain, per spec.md §4.4. Idle -> Listening is the only
// transition; there is no stop operation in the core (spec.md §4.4).
type TransportServer struct {
	log *zap.Logger

	mu       sync.Mutex
	delegate Delegate
	state    state
	listener net.Listener

	queue pendingQueue

	// MaxPendingConnections bounds queue growth; when the queue is at
	// capacity the accept loop blocks pushing further sockets until the
	// delegate drains some. Zero means unbounded, matching spec.md
	// §4.4's "backlog is unbounded (implementation may choose a
	// generous default)". This is qibus's supplemented analogue of the
	// teacher's ConnectionLimit semaphore (SPEC_FULL.md §4).
	MaxPendingConnections int
	sem                   chan struct{}

	acceptedTotal atomic.Uint64
}

// New constructs an idle TransportServer.
func New(log *zap.Logger) *TransportServer {
	if log == nil {
		log = zap.NewNop()
	}
	return &TransportServer{log: log}
}

// SetLogger re-points the server's logger.
func (s *TransportServer) SetLogger(log *zap.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if log == nil {
		log = zap.NewNop()
	}
	s.log = log
}

// SetCallbacks installs or replaces the delegate, per spec.md §4.4.
func (s *TransportServer) SetCallbacks(d Delegate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delegate = d
}

// Start parses url's host:port (dotted-quad IPv4 only, per spec.md
// §6), binds a listener on base with close-on-exec and address-reuse
// enabled, and begins accepting on base's goroutine. It returns false
// (logging the reason) if the host does not parse or the bind fails.
func (s *TransportServer) Start(base *eventloop.Loop, rawURL string) bool {
	host, port, err := parseServerURL(rawURL)
	if err != nil {
		s.log.Error("server: invalid server url", zap.String("url", rawURL), zap.Error(err))
		return false
	}

	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			return controlSetReuseAddr(c)
		},
	}

	ln, err := lc.Listen(context.Background(), "tcp4", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		s.log.Error("server: bind failed", zap.String("host", host), zap.Int("port", port), zap.Error(err))
		return false
	}

	s.mu.Lock()
	if s.MaxPendingConnections > 0 {
		s.sem = make(chan struct{}, s.MaxPendingConnections)
	}
	s.listener = ln
	s.state = stateListening
	s.mu.Unlock()

	base.Post(func() { s.acceptLoop(ln) })
	return true
}

// acceptLoop runs on the event-loop goroutine, per spec.md §5.
func (s *TransportServer) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			s.log.Debug("server: accept loop ending", zap.Error(err))
			return
		}
		s.handleAccepted(conn)
	}
}

func (s *TransportServer) handleAccepted(conn net.Conn) {
	if s.sem != nil {
		s.sem <- struct{}{}
	}

	_, span := tracer.Start(context.Background(), "qibus.accept",
		trace.WithAttributes(attribute.String("qibus.remote_addr", conn.RemoteAddr().String())))
	defer span.End()

	sock := transport.NewConn(conn, s.log)
	s.queue.push(sock)
	metrics.AcceptedConnections.Inc()
	metrics.PendingConnectionQueueDepth.Set(float64(s.queue.len()))
	s.acceptedTotal.Add(1)

	s.mu.Lock()
	delegate := s.delegate
	s.mu.Unlock()
	if delegate != nil {
		delegate.NewConnection()
	}
}

// NextPendingConnection pops the head of the pending-connection
// queue, or returns (nil, false) when empty, per spec.md §4.4.
func (s *TransportServer) NextPendingConnection() (Socket, bool) {
	sock, ok := s.queue.pop()
	if ok {
		metrics.PendingConnectionQueueDepth.Set(float64(s.queue.len()))
		if s.sem != nil {
			<-s.sem
		}
	}
	return sock, ok
}

// Addr returns the bound listener's address, or nil if not yet
// listening. Useful for tests that bind to port 0.
func (s *TransportServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close releases the bound listener, unblocking the accept loop.
// spec.md §4.4 specifies no stop operation for the core state machine
// ("Listening is terminal for the lifetime of the server"); Close
// exists only so embedders and tests can release the listener fd
// rather than leaking it and its accept-loop goroutine.
func (s *TransportServer) Close() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return nil
	}
	return ln.Close()
}

func parseServerURL(raw string) (string, int, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, fmt.Errorf("server: parsing url: %w", err)
	}
	host := u.Hostname()
	ip := net.ParseIP(host)
	if ip == nil || ip.To4() == nil {
		return "", 0, fmt.Errorf("server: host %q is not dotted-quad IPv4", host)
	}
	portStr := u.Port()
	if portStr == "" {
		return "", 0, fmt.Errorf("server: url %q has no port", raw)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return "", 0, fmt.Errorf("server: port %q out of range 0..65535", portStr)
	}
	return ip.String(), port, nil
}
