// Package transport provides the socket abstraction spec.md §2 calls
// out as "external (interface only)": a full-duplex framed channel
// multiplexing outbound sends with inbound dispatch, keyed by
// service-id. The core (proxy, server) only depends on the Socket
// interface; Conn is this module's concrete TCP-backed implementation
// of it, used by TransportServer and by integration tests.
package transport

import "github.com/qi-bus/qibus/internal/wire"

// Handler is a per-service inbound dispatcher, invoked with each
// incoming message addressed to that service.
type Handler func(*wire.Message)

// Token identifies an installed Handler so it can be detached later.
type Token uint64

// Socket is the interface consumed by ObjectProxy, per spec.md §6.
type Socket interface {
	// Send hands msg to the socket for delivery and reports whether
	// the socket accepted it. It does not wait for a reply.
	Send(msg *wire.Message) bool

	// IsConnected reports whether the socket can currently accept
	// sends.
	IsConnected() bool

	// MessagePendingConnect installs handler as the dispatcher for
	// service, returning a token for later removal.
	MessagePendingConnect(service uint32, handler Handler) Token

	// MessagePendingDisconnect removes the handler identified by
	// token for service.
	MessagePendingDisconnect(service uint32, token Token)
}
