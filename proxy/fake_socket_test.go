package proxy

import (
	"sync"

	"github.com/qi-bus/qibus/internal/wire"
	"github.com/qi-bus/qibus/transport"
)

// fakeSocket is an in-memory transport.Socket double: it records every
// sent message and lets the test drive replies by invoking the
// installed per-service handler directly, mirroring the real
// transport.Conn's dispatch-by-service behavior without a real
// net.Conn.
type fakeSocket struct {
	mu        sync.Mutex
	connected bool
	sendOK    bool
	sent      []*wire.Message
	handlers  map[uint32]transport.Handler
	nextTok   transport.Token
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{connected: true, sendOK: true, handlers: make(map[uint32]transport.Handler)}
}

func (f *fakeSocket) Send(msg *wire.Message) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.sendOK {
		return false
	}
	f.sent = append(f.sent, msg)
	return true
}

func (f *fakeSocket) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeSocket) MessagePendingConnect(service uint32, handler transport.Handler) transport.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextTok++
	f.handlers[service] = handler
	return f.nextTok
}

func (f *fakeSocket) MessagePendingDisconnect(service uint32, token transport.Token) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, service)
}

// deliver invokes the handler installed for service as if a message
// addressed to it had arrived off the wire.
func (f *fakeSocket) deliver(service uint32, msg *wire.Message) {
	f.mu.Lock()
	h := f.handlers[service]
	f.mu.Unlock()
	if h != nil {
		h(msg)
	}
}

func (f *fakeSocket) lastSent() *wire.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeSocket) setConnected(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = v
}

func (f *fakeSocket) setSendOK(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendOK = v
}
