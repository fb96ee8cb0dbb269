package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qi-bus/qibus/internal/typesys"
	"github.com/qi-bus/qibus/internal/wire"
)

func TestConnSendAndDispatchRoundTrip(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	serverSock := NewConn(server, nil)
	clientSock := NewConn(client, nil)

	received := make(chan *wire.Message, 1)
	clientSock.MessagePendingConnect(7, func(m *wire.Message) {
		received <- m
	})

	payload, err := typesys.NewBuffer("i", int64(42))
	require.NoError(t, err)
	msg := wire.NewCall(7, 3, payload)

	require.True(t, serverSock.Send(msg))

	select {
	case got := <-received:
		require.Equal(t, msg.ID(), got.ID())
		require.Equal(t, msg.Service(), got.Service())
		require.Equal(t, msg.Function(), got.Function())
		sig, err := got.Payload().Signature()
		require.NoError(t, err)
		require.Equal(t, "i", sig)
	case <-time.After(time.Second):
		t.Fatal("message was not dispatched")
	}
}

func TestConnDisconnectAfterClose(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	sock := NewConn(server, nil)
	require.True(t, sock.IsConnected())

	require.NoError(t, sock.Close())
	require.False(t, sock.IsConnected())

	payload, err := typesys.NewBuffer("i", int64(1))
	require.NoError(t, err)
	require.False(t, sock.Send(wire.NewCall(1, 1, payload)))
}

func TestMessagePendingDisconnectStopsDelivery(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	serverSock := NewConn(server, nil)
	clientSock := NewConn(client, nil)

	received := make(chan *wire.Message, 1)
	tok := clientSock.MessagePendingConnect(7, func(m *wire.Message) { received <- m })
	clientSock.MessagePendingDisconnect(7, tok)

	payload, err := typesys.NewBuffer("i", int64(1))
	require.NoError(t, err)
	serverSock.Send(wire.NewCall(7, 3, payload))

	select {
	case <-received:
		t.Fatal("handler should have been detached")
	case <-time.After(100 * time.Millisecond):
	}
}
