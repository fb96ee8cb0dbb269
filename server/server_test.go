package server

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qi-bus/qibus/eventloop"
	"github.com/qi-bus/qibus/transport"
)

type countingDelegate struct {
	notified chan struct{}
}

func newCountingDelegate() *countingDelegate {
	return &countingDelegate{notified: make(chan struct{}, 16)}
}

func (d *countingDelegate) NewConnection() {
	d.notified <- struct{}{}
}

// Scenario 6 (spec.md §8): accept ordering.
func TestAcceptOrderingFIFO(t *testing.T) {
	srv := New(nil)
	delegate := newCountingDelegate()
	srv.SetCallbacks(delegate)

	loop := eventloop.New()
	defer loop.Stop()
	defer srv.Close()

	ok := srv.Start(loop, "tcp://127.0.0.1:0")
	require.True(t, ok)

	addr := srv.Addr()
	require.NotNil(t, addr)

	var clients []net.Conn
	for i := 0; i < 3; i++ {
		c, err := net.Dial("tcp", addr.String())
		require.NoError(t, err)
		clients = append(clients, c)

		select {
		case <-delegate.notified:
		case <-time.After(time.Second):
			t.Fatalf("delegate was not notified for connection %d", i)
		}
	}
	defer func() {
		for _, c := range clients {
			c.Close()
		}
	}()

	var popped []transport.Socket
	for i := 0; i < 3; i++ {
		sock, ok := srv.NextPendingConnection()
		require.True(t, ok, "expected a pending connection at index %d", i)
		popped = append(popped, sock)
	}
	defer func() {
		for _, sock := range popped {
			sock.(*transport.Conn).Close()
		}
	}()

	for i, sock := range popped {
		conn, isConn := sock.(*transport.Conn)
		require.True(t, isConn)
		require.Equal(t, clients[i].LocalAddr().String(), conn.RemoteAddr().String(),
			"pending connections must be returned in accept order")
	}

	_, ok = srv.NextPendingConnection()
	require.False(t, ok, "fourth NextPendingConnection call must return nothing")
}

func TestStartRejectsNonIPv4Host(t *testing.T) {
	srv := New(nil)
	loop := eventloop.New()
	defer loop.Stop()

	ok := srv.Start(loop, "tcp://localhost:7878")
	require.False(t, ok)
}

func TestSetCallbacksBeforeStartIsNotified(t *testing.T) {
	srv := New(nil)
	delegate := newCountingDelegate()
	srv.SetCallbacks(delegate)

	loop := eventloop.New()
	defer loop.Stop()
	defer srv.Close()
	require.True(t, srv.Start(loop, "tcp://127.0.0.1:0"))

	c, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer c.Close()

	select {
	case <-delegate.notified:
	case <-time.After(time.Second):
		t.Fatal("delegate was not notified")
	}

	sock, ok := srv.NextPendingConnection()
	require.True(t, ok)
	defer sock.(*transport.Conn).Close()
}
